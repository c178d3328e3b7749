// Package openlibrary drafts manifestation records from the Open Library
// books API, falling back to Google Books.
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"catalog/src/internal/dates"
	"catalog/src/internal/httpx"
	"catalog/src/internal/identifier"
	"catalog/src/internal/names"
	"catalog/src/internal/schema"
)

var client httpx.Doer = &http.Client{Timeout: 10 * time.Second}

// SetHTTPClient allows tests to inject a fake HTTP client.
func SetHTTPClient(c httpx.Doer) { client = c }

// Draft is an unsaved manifestation with the agents named by the provider.
// Creators and Publishers are in provider order.
type Draft struct {
	Manifestation schema.Manifestation
	Creators      []string
	Publishers    []string
	Source        string
}

// FetchByISBN looks raw up by its ISBN-13. An invalid ISBN is refused
// before any request is made.
func FetchByISBN(ctx context.Context, raw string) (Draft, error) {
	pair, ok := identifier.CanonicalizeISBN(raw)
	if !ok {
		return Draft{}, fmt.Errorf("%w: %q", identifier.ErrInvalidIdentifier, raw)
	}
	resp, err := client.Do(buildOpenLibraryRequest(ctx, pair.ISBN13))
	if err != nil {
		return Draft{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Draft{}, httpx.StatusError("openlibrary", resp)
	}
	data, found, err := decodeOpenLibraryData(resp, pair.ISBN13)
	if err != nil {
		return Draft{}, err
	}
	if !found {
		if d, err := fetchGoogleBook(ctx, pair.ISBN13); err == nil {
			return d, nil
		}
		return Draft{}, fmt.Errorf("openlibrary: no data for ISBN:%s", pair.ISBN13)
	}
	return mapOpenLibrary(data, pair.ISBN13), nil
}

type olData struct {
	Title         string                  `json:"title"`
	Subtitle      string                  `json:"subtitle"`
	PublishDate   string                  `json:"publish_date"`
	NumberOfPages int                     `json:"number_of_pages"`
	URL           string                  `json:"url"`
	Authors       []struct{ Name string } `json:"authors"`
	Publishers    []struct{ Name string } `json:"publishers"`
	Identifiers   map[string][]string     `json:"identifiers"`
}

func buildOpenLibraryRequest(ctx context.Context, isbn string) *http.Request {
	q := url.Values{}
	q.Set("bibkeys", "ISBN:"+isbn)
	q.Set("format", "json")
	q.Set("jscmd", "data")
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "https://openlibrary.org/api/books?"+q.Encode(), nil)
	req.Header.Set("Accept", "application/json")
	httpx.SetUA(req)
	return req
}

func decodeOpenLibraryData(resp *http.Response, isbn string) (olData, bool, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return olData{}, false, err
	}
	dataRaw, ok := raw["ISBN:"+isbn]
	if !ok || len(dataRaw) == 0 {
		return olData{}, false, nil
	}
	var data olData
	if err := json.Unmarshal(dataRaw, &data); err != nil {
		return olData{}, false, err
	}
	return data, true, nil
}

func mapOpenLibrary(data olData, isbn string) Draft {
	m := schema.Manifestation{
		ID:               schema.NewID(),
		OriginalTitle:    data.Title,
		TitleAlternative: data.Subtitle,
		ISBN:             isbn,
		PubDate:          publicationText(data.PublishDate),
		AccessAddress:    data.URL,
	}
	if data.NumberOfPages > 0 {
		m.StartPage, m.EndPage = "1", strconv.Itoa(data.NumberOfPages)
	}
	if lccns := data.Identifiers["lccn"]; len(lccns) > 0 {
		m.LCCN = lccns[0]
	}
	d := Draft{Manifestation: m, Source: "openlibrary"}
	for _, a := range data.Authors {
		d.Creators = appendName(d.Creators, a.Name)
	}
	for _, p := range data.Publishers {
		d.Publishers = appendName(d.Publishers, p.Name)
	}
	return d
}

func fetchGoogleBook(ctx context.Context, isbn string) (Draft, error) {
	resp, err := client.Do(buildGoogleBooksRequest(ctx, isbn))
	if err != nil {
		return Draft{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Draft{}, httpx.StatusError("googlebooks", resp)
	}
	var gb gBooksResp
	if err := json.NewDecoder(resp.Body).Decode(&gb); err != nil {
		return Draft{}, err
	}
	if len(gb.Items) == 0 {
		return Draft{}, fmt.Errorf("googlebooks: no items for %s", isbn)
	}
	return mapGoogleBook(gb.Items[0].VolumeInfo, isbn), nil
}

type gBooksResp struct {
	Items []struct {
		VolumeInfo gVolume `json:"volumeInfo"`
	} `json:"items"`
}

type gVolume struct {
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle"`
	Authors       []string `json:"authors"`
	Publisher     string   `json:"publisher"`
	PublishedDate string   `json:"publishedDate"`
	PageCount     int      `json:"pageCount"`
	InfoLink      string   `json:"infoLink"`
}

func buildGoogleBooksRequest(ctx context.Context, isbn string) *http.Request {
	q := url.Values{}
	q.Set("q", "isbn:"+isbn)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "https://www.googleapis.com/books/v1/volumes?"+q.Encode(), nil)
	req.Header.Set("Accept", "application/json")
	httpx.SetUA(req)
	return req
}

func mapGoogleBook(v gVolume, isbn string) Draft {
	m := schema.Manifestation{
		ID:               schema.NewID(),
		OriginalTitle:    v.Title,
		TitleAlternative: v.Subtitle,
		ISBN:             isbn,
		PubDate:          publicationText(v.PublishedDate),
		AccessAddress:    v.InfoLink,
	}
	if v.PageCount > 0 {
		m.StartPage, m.EndPage = "1", strconv.Itoa(v.PageCount)
	}
	d := Draft{Manifestation: m, Source: "googlebooks"}
	for _, a := range v.Authors {
		d.Creators = appendName(d.Creators, a)
	}
	d.Publishers = appendName(d.Publishers, v.Publisher)
	return d
}

func appendName(list []string, name string) []string {
	if name = names.Clean(name); name != "" {
		list = append(list, name)
	}
	return list
}

var yearRe = regexp.MustCompile(`\b(1[5-9]\d\d|20\d\d)\b`)

// publicationText keeps a provider date the publication parser accepts and
// otherwise reduces it to its year ("June 1954" -> "1954").
func publicationText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if _, err := dates.ParsePublication(s); err == nil {
		return s
	}
	return yearRe.FindString(s)
}
