package markup

import (
	"strings"
	"time"

	"github.com/dhamidi/snek/config"
)

// Built-in placeholder names.
const (
	PlaceholderDate     = "date"
	PlaceholderTime     = "time"
	PlaceholderDateTime = "datetime"
	PlaceholderTOC      = "toc"
)

const (
	dateLayout = "02.01.2006"
	timeLayout = "15:04:05"
)

var now = time.Now

// BibReference is a [^key] citation.
type BibReference struct {
	Key   string
	Entry *BibEntry
}

// BibEntry is one bibliography record. Number is the position of its first
// citation, starting at 1; uncited entries keep 0.
type BibEntry struct {
	Key       string
	Number    int
	Title     string
	Author    string
	Date      string
	Publisher string
	URL       string
	Notes     string
}

// Bibliography collects the citations of a document and the entries they
// refer to.
type Bibliography struct {
	References []*BibReference
	Entries    map[string]*BibEntry
}

// NewBibliography returns an empty bibliography.
func NewBibliography() *Bibliography {
	return &Bibliography{Entries: make(map[string]*BibEntry)}
}

// AddReference records a citation.
func (b *Bibliography) AddReference(ref *BibReference) {
	b.References = append(b.References, ref)
}

// AddEntry records an entry. An existing entry with the same key is kept.
func (b *Bibliography) AddEntry(e *BibEntry) {
	if _, ok := b.Entries[e.Key]; ok {
		return
	}
	b.Entries[e.Key] = e
}

// AddConfigured adds the entries of a configuration.
func (b *Bibliography) AddConfigured(entries map[string]config.BibEntry) {
	for key, e := range entries {
		b.AddEntry(&BibEntry{
			Key:       key,
			Title:     e.Title,
			Author:    e.Author,
			Date:      e.Date,
			Publisher: e.Publisher,
			URL:       e.URL,
			Notes:     e.Notes,
		})
	}
}

// Combine merges other into b. Citations are appended in order; entries of
// b win over entries of other.
func (b *Bibliography) Combine(other *Bibliography) {
	if other == nil || other == b {
		return
	}
	b.References = append(b.References, other.References...)
	for _, e := range other.Entries {
		b.AddEntry(e)
	}
}

// AssignEntryData links every citation to its entry and numbers entries in
// order of first citation. It returns the citations without an entry.
func (b *Bibliography) AssignEntryData() []*BibReference {
	var missing []*BibReference
	next := 1
	for _, ref := range b.References {
		e, ok := b.Entries[ref.Key]
		if !ok {
			missing = append(missing, ref)
			continue
		}
		if e.Number == 0 {
			e.Number = next
			next++
		}
		ref.Entry = e
	}
	return missing
}

// ProcessPlaceholders substitutes every registered placeholder that names a
// built-in or a configured value. Unknown placeholders stay unresolved.
func (d *Document) ProcessPlaceholders() {
	t := now()
	for _, p := range d.Placeholders {
		switch strings.ToLower(p.Name) {
		case PlaceholderDate:
			p.SetValue(Plain(t.Format(dateLayout)))
		case PlaceholderTime:
			p.SetValue(Plain(t.Format(timeLayout)))
		case PlaceholderDateTime:
			p.SetValue(Plain(t.Format(dateLayout + " " + timeLayout)))
		case PlaceholderTOC:
			p.Block = d.TOC(d.Config.TOC.Ordered)
		default:
			if v, ok := d.Config.Placeholder(p.Name); ok {
				p.SetValue(Plain(v))
			}
		}
	}
}

// Postprocess builds the section hierarchy and, for the root document,
// resolves placeholders and bibliography references. It returns the imports
// that are still unresolved.
func (d *Document) Postprocess() []*Import {
	unresolved := d.BuildHierarchy()
	if !d.Root {
		return unresolved
	}
	d.Bibliography.AddConfigured(d.Config.Bibliography)
	d.ProcessPlaceholders()
	d.Bibliography.AssignEntryData()
	return unresolved
}
