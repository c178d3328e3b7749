package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Manifestation is a published embodiment of a work, stored on disk as YAML.
// Works and expressions are manifestation records too; the FRBR level is
// carried by the relationships that point at them.
type Manifestation struct {
	ID                 string `yaml:"id" json:"id"`
	OriginalTitle      string `yaml:"original_title" json:"original_title"`
	TitleTranscription string `yaml:"title_transcription,omitempty" json:"title_transcription,omitempty"`
	TitleAlternative   string `yaml:"title_alternative,omitempty" json:"title_alternative,omitempty"`
	AccessAddress      string `yaml:"access_address,omitempty" json:"access_address,omitempty"`

	ISBN      string `yaml:"isbn,omitempty" json:"isbn,omitempty"`
	ISBN10    string `yaml:"isbn10,omitempty" json:"isbn10,omitempty"`
	WrongISBN string `yaml:"wrong_isbn,omitempty" json:"wrong_isbn,omitempty"`
	ISSN      string `yaml:"issn,omitempty" json:"issn,omitempty"`
	LCCN      string `yaml:"lccn,omitempty" json:"lccn,omitempty"`

	PubDate              string     `yaml:"pub_date,omitempty" json:"pub_date,omitempty"`
	DateOfPublication    *time.Time `yaml:"date_of_publication,omitempty" json:"date_of_publication,omitempty"`
	DisDate              string     `yaml:"dis_date,omitempty" json:"dis_date,omitempty"`
	DateOfDiscontinuance *time.Time `yaml:"date_of_discontinuance,omitempty" json:"date_of_discontinuance,omitempty"`

	VolumeNumberString string `yaml:"volume_number_string,omitempty" json:"volume_number_string,omitempty"`
	IssueNumberString  string `yaml:"issue_number_string,omitempty" json:"issue_number_string,omitempty"`
	SerialNumberString string `yaml:"serial_number_string,omitempty" json:"serial_number_string,omitempty"`
	VolumeNumber       *int64 `yaml:"volume_number,omitempty" json:"volume_number,omitempty"`
	IssueNumber        *int64 `yaml:"issue_number,omitempty" json:"issue_number,omitempty"`
	SerialNumber       *int64 `yaml:"serial_number,omitempty" json:"serial_number,omitempty"`
	NotSetSerialNumber bool   `yaml:"not_set_serial_number,omitempty" json:"not_set_serial_number,omitempty"`

	StartPage         string `yaml:"start_page,omitempty" json:"start_page,omitempty"`
	EndPage           string `yaml:"end_page,omitempty" json:"end_page,omitempty"`
	PeriodicalMaster  bool   `yaml:"periodical_master,omitempty" json:"periodical_master,omitempty"`
	SeriesStatementID string `yaml:"series_statement_id,omitempty" json:"series_statement_id,omitempty"`
}

// Item is a single physical or digital copy of a manifestation.
type Item struct {
	ID               string     `yaml:"id" json:"id"`
	ManifestationID  string     `yaml:"manifestation_id,omitempty" json:"manifestation_id,omitempty"`
	ItemIdentifier   string     `yaml:"item_identifier,omitempty" json:"item_identifier,omitempty"`
	Identifier       string     `yaml:"identifier,omitempty" json:"identifier,omitempty"`
	CallNumber       string     `yaml:"call_number,omitempty" json:"call_number,omitempty"`
	URL              string     `yaml:"url,omitempty" json:"url,omitempty"`
	AcquiredAtString string     `yaml:"acquired_at_string,omitempty" json:"acquired_at_string,omitempty"`
	AcquiredAt       *time.Time `yaml:"acquired_at,omitempty" json:"acquired_at,omitempty"`
}

const maxAddressLen = 255

// Validate applies the record-level rules that do not depend on derived fields.
func (m *Manifestation) Validate() error {
	var errs FieldErrors
	if strings.TrimSpace(m.ID) == "" {
		errs.Add("id", errors.New("is required"))
	}
	if strings.TrimSpace(m.OriginalTitle) == "" {
		errs.Add("original_title", errors.New("is required"))
	}
	if len(m.AccessAddress) > maxAddressLen {
		errs.Add("access_address", fmt.Errorf("is longer than %d characters", maxAddressLen))
	}
	return errs.Err()
}

// Validate applies the record-level rules of an item.
func (it *Item) Validate() error {
	var errs FieldErrors
	if strings.TrimSpace(it.ID) == "" {
		errs.Add("id", errors.New("is required"))
	}
	if len(it.URL) > maxAddressLen {
		errs.Add("url", fmt.Errorf("is longer than %d characters", maxAddressLen))
	}
	return errs.Err()
}

// NumberOfPages returns end-start+1 when both pages are plain numbers.
func (m *Manifestation) NumberOfPages() (int, bool) {
	start, err1 := strconv.Atoi(strings.TrimSpace(m.StartPage))
	end, err2 := strconv.Atoi(strings.TrimSpace(m.EndPage))
	if err1 != nil || err2 != nil || strings.ContainsAny(m.StartPage+m.EndPage, "+-") {
		return 0, false
	}
	return end - start + 1, true
}

// Titles lists the non-empty title forms used for display and indexing.
func (m *Manifestation) Titles() []string {
	var out []string
	for _, t := range []string{m.OriginalTitle, m.TitleTranscription, m.TitleAlternative} {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// NewID returns a random UUIDv4 string for a new record.
func NewID() string { return uuid.NewString() }

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
var dashCollapse = regexp.MustCompile(`-+`)

// Slugify generates an id-friendly slug from title and optional year.
func Slugify(title string, year *int) string {
	t := strings.ToLower(strings.TrimSpace(title))
	t = nonAlnum.ReplaceAllString(t, "-")
	t = dashCollapse.ReplaceAllString(t, "-")
	t = strings.Trim(t, "-")
	if year != nil {
		return fmt.Sprintf("%s-%d", t, *year)
	}
	return t
}
