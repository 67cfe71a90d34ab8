package handlers

import (
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/storage"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func callerFrom(c *fiber.Ctx) (domain.Caller, error) {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return domain.Caller{}, apperrors.NewUnauthorized("authentication required")
	}
	return caller, nil
}

// pathID returns the :id route parameter. Keys are UUIDs, so anything else
// cannot name an existing resource.
func pathID(c *fiber.Ctx, resource string) (string, error) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return id, nil
}

// queryID reads an optional UUID query parameter.
func queryID(c *fiber.Ctx, key string) (string, error) {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return "", nil
	}
	if _, err := uuid.Parse(val); err != nil {
		return "", apperrors.NewFieldValidationError(apperrors.FieldError{Field: key, Message: "must be a valid id"})
	}
	return val, nil
}

// bind parses the body (JSON or form) into req and validates its tags.
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(req)
}

// formFile returns the named multipart file, or nil when absent.
func formFile(c *fiber.Ctx, field string) (*multipart.FileHeader, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.NewValidationError("invalid multipart form", nil)
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	return files[0], nil
}

// openUpload opens a multipart file as a storage upload. The caller closes it.
func openUpload(fh *multipart.FileHeader) (*storage.Upload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	return &storage.Upload{Filename: fh.Filename, Size: fh.Size, Content: f}, func() { _ = f.Close() }, nil
}

func optionalString(val *string) *string {
	if val == nil || strings.TrimSpace(*val) == "" {
		return nil
	}
	return val
}

func queryCategory(c *fiber.Ctx) *domain.TicketCategory {
	val := strings.ToUpper(strings.TrimSpace(c.Query("category")))
	if val == "" {
		return nil
	}
	category := domain.TicketCategory(val)
	return &category
}

func queryStatuses(c *fiber.Ctx) []domain.TicketStatus {
	var result []domain.TicketStatus
	for _, part := range splitList(c.Query("status")) {
		result = append(result, domain.TicketStatus(part))
	}
	return result
}

func queryPriorities(c *fiber.Ctx) []domain.TicketPriority {
	var result []domain.TicketPriority
	for _, part := range splitList(c.Query("priority")) {
		result = append(result, domain.TicketPriority(part))
	}
	return result
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// queryTime accepts RFC3339 or a bare date. A bare date used as an upper
// bound covers the whole day.
func queryTime(c *fiber.Ctx, key string, endOfDay bool) (*time.Time, error) {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, val, time.Local)
	if err != nil {
		return nil, apperrors.NewFieldValidationError(apperrors.FieldError{Field: key, Message: "must be YYYY-MM-DD or RFC3339"})
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func queryRange(c *fiber.Ctx, fromKey, toKey string) (*time.Time, *time.Time, error) {
	from, err := queryTime(c, fromKey, false)
	if err != nil {
		return nil, nil, err
	}
	to, err := queryTime(c, toKey, true)
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseBool(val string) *bool {
	if val == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return nil
	}
	return &parsed
}
