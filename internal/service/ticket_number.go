package service

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	ticketNumberPrefix   = "TKT"
	ticketNumberAttempts = 3
)

// NumberGenerator produces candidate ticket numbers.
type NumberGenerator func(now time.Time) string

// defaultTicketNumber formats TKT-<yyMMddHH>-<3 random digits>.
func defaultTicketNumber(now time.Time) string {
	return fmt.Sprintf("%s-%s-%03d", ticketNumberPrefix, now.Format("06010215"), rand.IntN(1000))
}
