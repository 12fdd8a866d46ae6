package models

type HintType string

const (
	HintYear      HintType = "year"
	HintPublisher HintType = "publisher"
	HintDeveloper HintType = "developer"
)

func (h HintType) Valid() bool {
	switch h {
	case HintYear, HintPublisher, HintDeveloper:
		return true
	}
	return false
}

type HintInput struct {
	UserID     string
	SessionID  int64
	Position   int
	Type       HintType
	UsePowerUp bool
}

type HintReveal struct {
	Position      int      `json:"position"`
	Type          HintType `json:"type"`
	Value         string   `json:"value"`
	Deduction     int      `json:"deduction"`
	AlreadyUsed   bool     `json:"already_used"`
	TotalDeducted int      `json:"total_deducted"` // all hints on this position
}
