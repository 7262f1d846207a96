package domain

// Band is a lineup entry. Genre, stage and scheduled time are optional;
// scheduled_at is stored as a normalized "2006-01-02T15:04:05" string so
// string comparison orders chronologically.
type Band struct {
	ID          int     `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Genre       *string `json:"genre" db:"genre"`
	Stage       *string `json:"stage" db:"stage"`
	ScheduledAt *string `json:"scheduledAt" db:"scheduled_at"`
}

// BandRead is the public read shape. It currently mirrors Band field for
// field, but internal-only columns added later must not leak through it.
type BandRead struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Genre       *string `json:"genre"`
	Stage       *string `json:"stage"`
	ScheduledAt *string `json:"scheduledAt"`
}

// Read projects the band onto its public shape.
func (b Band) Read() BandRead {
	return BandRead{
		ID:          b.ID,
		Name:        b.Name,
		Genre:       b.Genre,
		Stage:       b.Stage,
		ScheduledAt: b.ScheduledAt,
	}
}
