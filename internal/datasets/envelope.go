package datasets

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"energypolicy/internal/tabular"
)

// ErrInvalidEnvelope is returned when a document lacks the envelope fields
var ErrInvalidEnvelope = errors.New("datasets: invalid data envelope")

// Source cites where a dataset came from
type Source struct {
	Agency     string `json:"agency"`
	Dataset    string `json:"dataset"`
	URL        string `json:"url"`
	AccessDate string `json:"accessDate"`
	Vintage    string `json:"vintage,omitempty"`
}

// Envelope wraps a dataset's records with its provenance
type Envelope struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Source      Source            `json:"source"`
	Units       map[string]string `json:"units"`
	Caveats     []string          `json:"caveats,omitempty"`
	LastUpdated string            `json:"lastUpdated"`
	Data        []tabular.Value   `json:"data"`
}

type rawEnvelope struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Source      Source            `json:"source"`
	Units       map[string]string `json:"units"`
	Caveats     []string          `json:"caveats,omitempty"`
	LastUpdated string            `json:"lastUpdated"`
	Data        json.RawMessage   `json:"data"`
}

// UnmarshalJSON decodes the envelope. The data array is decoded separately so
// record keys keep their document order.
func (e *Envelope) UnmarshalJSON(b []byte) error {
	var raw rawEnvelope
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(bytes.TrimSpace(raw.Data)) == 0 {
		return fmt.Errorf("%w: missing data array", ErrInvalidEnvelope)
	}

	records, err := tabular.DecodeRecords(bytes.NewReader(raw.Data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	*e = Envelope{
		ID:          raw.ID,
		Title:       raw.Title,
		Source:      raw.Source,
		Units:       raw.Units,
		Caveats:     raw.Caveats,
		LastUpdated: raw.LastUpdated,
		Data:        records,
	}
	return nil
}

// DecodeEnvelope reads one envelope document
func DecodeEnvelope(r io.Reader) (*Envelope, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read envelope: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		if errors.Is(err, ErrInvalidEnvelope) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return &env, nil
}

// Records returns the number of data records
func (e *Envelope) Records() int {
	return len(e.Data)
}

// Summary is the envelope without its data, used for listings
type Summary struct {
	ID          string            `json:"id"`
	Category    string            `json:"category"`
	Title       string            `json:"title"`
	Source      Source            `json:"source"`
	Units       map[string]string `json:"units"`
	Caveats     []string          `json:"caveats,omitempty"`
	LastUpdated string            `json:"lastUpdated"`
	Records     int               `json:"records"`
}

// Summarize drops the records of e, keeping its metadata
func (e *Envelope) Summarize(category string) Summary {
	return Summary{
		ID:          e.ID,
		Category:    category,
		Title:       e.Title,
		Source:      e.Source,
		Units:       e.Units,
		Caveats:     e.Caveats,
		LastUpdated: e.LastUpdated,
		Records:     len(e.Data),
	}
}
