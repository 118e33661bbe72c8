package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case SeatList:
		o.printSeatList(v)
	case SeatView:
		o.printSeat(v)
	case AuthResult:
		o.printAuthResult(v)
	case OTPSendResult:
		fmt.Fprintf(o.w, "Code sent; it expires at %s\n", v.ExpiresAt.Local().Format(time.Kitchen))
	case WhoamiResult:
		o.printWhoami(v)
	case HealthResult:
		fmt.Fprintf(o.w, "Status: %s\nStore: %s\n", v.Status, v.Store)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// SeatView is one seat as the server renders it for the caller.
type SeatView struct {
	ID       string  `json:"id"`
	CX       float64 `json:"cx"`
	CY       float64 `json:"cy"`
	R        float64 `json:"r"`
	Occupied bool    `json:"occupied"`
	Role     string  `json:"role"`
	Label    string  `json:"label"`
	Fill     string  `json:"fill"`
	Stroke   string  `json:"stroke"`
	Action   string  `json:"action"`
}

// SeatList response type
type SeatList struct {
	Seats []SeatView `json:"seats"`
}

// SeatResult response type
type SeatResult struct {
	Seat SeatView `json:"seat"`
}

// AuthResult response type
type AuthResult struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	Access struct {
		Token   string    `json:"token"`
		Expires time.Time `json:"expires"`
	} `json:"access"`
}

// OTPSendResult response type
type OTPSendResult struct {
	Sent      bool      `json:"sent"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MeResult response type
type MeResult struct {
	UserID string    `json:"user_id"`
	Email  string    `json:"email"`
	Seat   *SeatView `json:"seat"`
}

// WhoamiResult combines the session state with the server's answer.
type WhoamiResult struct {
	State string    `json:"state"`
	Me    *MeResult `json:"me,omitempty"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

func (o *Output) printSeatList(l SeatList) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEAT\tSTATUS\tACTION")
	free := 0
	for _, s := range l.Seats {
		if !s.Occupied {
			free++
		}
		action := s.Action
		if action == "" {
			action = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.Label, action)
	}
	_ = tw.Flush()
	fmt.Fprintf(o.w, "%d of %d seats free\n", free, len(l.Seats))
}

func (o *Output) printSeat(s SeatView) {
	fmt.Fprintf(o.w, "Seat: %s\n", s.ID)
	fmt.Fprintf(o.w, "Status: %s\n", s.Label)
	if s.Action != "" {
		fmt.Fprintf(o.w, "Action: %s\n", s.Action)
	}
}

func (o *Output) printAuthResult(a AuthResult) {
	fmt.Fprintf(o.w, "Signed in as %s (%s)\n", a.User.Email, a.User.ID)
	fmt.Fprintf(o.w, "Token expires: %s\n", a.Access.Expires.Local().Format(time.RFC3339))
}

func (o *Output) printWhoami(r WhoamiResult) {
	if r.Me == nil {
		fmt.Fprintf(o.w, "Not signed in (%s)\n", r.State)
		return
	}
	fmt.Fprintf(o.w, "User: %s (%s)\n", r.Me.Email, r.Me.UserID)
	if r.Me.Seat != nil {
		fmt.Fprintf(o.w, "Seat: %s\n", r.Me.Seat.ID)
	} else {
		fmt.Fprintln(o.w, "Seat: none")
	}
}
