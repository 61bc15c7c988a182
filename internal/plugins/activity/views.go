package activity

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/bizledger/internal/templates/layouts"
)

// ActivityPage renders the activity feed with its filter bar, one row per
// record, an expandable field-change table and pagination links.
func ActivityPage(page *FeedPage, filter FeedFilter, labels *Labels) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder

		writeFilterBar(&b, filter, labels)

		if len(page.Items) == 0 {
			b.WriteString(`<p class="empty">No activity yet.</p>`)
		} else {
			b.WriteString(`<ul class="activity-feed">`)
			for _, it := range page.Items {
				writeItem(&b, it)
			}
			b.WriteString(`</ul>`)
		}

		writePager(&b, page, filter)

		_, err := io.WriteString(w, b.String())
		return err
	})
	return layouts.Base("Activity", body)
}

func writeFilterBar(b *strings.Builder, filter FeedFilter, labels *Labels) {
	b.WriteString(`<form class="activity-filter" method="get" action="/activity">`)

	b.WriteString(`<select name="collection"><option value="">All tables</option>`)
	keys := make([]string, 0, len(labels.Collections))
	for k := range labels.Collections {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		selected := ""
		if Collection(k) == filter.Collection {
			selected = " selected"
		}
		fmt.Fprintf(b, `<option value="%s"%s>%s</option>`,
			templ.EscapeString(k), selected, templ.EscapeString(labels.Collections.Get(k)))
	}
	b.WriteString(`</select>`)

	b.WriteString(`<select name="action"><option value="">All actions</option>`)
	for _, a := range []Action{ActionCreate, ActionUpdate, ActionDelete} {
		selected := ""
		if a == filter.Action {
			selected = " selected"
		}
		fmt.Fprintf(b, `<option value="%s"%s>%s</option>`,
			a, selected, templ.EscapeString(labels.Action(a)))
	}
	b.WriteString(`</select>`)

	fmt.Fprintf(b, `<input type="search" name="q" value="%s" placeholder="Search">`,
		templ.EscapeString(filter.Query))
	b.WriteString(`<button type="submit">Filter</button>`)
	fmt.Fprintf(b, `<a class="export" href="%s">Export CSV</a>`,
		templ.EscapeString("/api/v1/activity/export.csv?"+filterQuery(filter, 0).Encode()))
	b.WriteString(`</form>`)
}

func writeItem(b *strings.Builder, it FeedItem) {
	fmt.Fprintf(b, `<li class="activity-item action-%s">`, strings.ToLower(string(it.Record.Action)))
	fmt.Fprintf(b, `<time>%s</time> <span class="table">%s</span> <p>%s</p>`,
		templ.EscapeString(it.When),
		templ.EscapeString(it.CollectionLabel),
		templ.EscapeString(it.Description.Summary))

	if len(it.Description.FieldChanges) > 0 {
		b.WriteString(`<details><summary>Changes</summary><table><tbody>`)
		for _, fc := range it.Description.FieldChanges {
			fmt.Fprintf(b, `<tr><th>%s</th><td class="old">%s</td><td class="new">%s</td></tr>`,
				templ.EscapeString(fc.Label),
				templ.EscapeString(fc.OldValue),
				templ.EscapeString(fc.NewValue))
		}
		b.WriteString(`</tbody></table></details>`)
	}
	b.WriteString(`</li>`)
}

func writePager(b *strings.Builder, page *FeedPage, filter FeedFilter) {
	if page.PerPage <= 0 || page.Total <= page.PerPage {
		return
	}
	last := (page.Total + page.PerPage - 1) / page.PerPage

	b.WriteString(`<nav class="pager">`)
	if page.Page > 1 {
		fmt.Fprintf(b, `<a href="/activity?%s">Previous</a>`,
			templ.EscapeString(filterQuery(filter, page.Page-1).Encode()))
	}
	fmt.Fprintf(b, `<span>Page %d of %d</span>`, page.Page, last)
	if page.Page < last {
		fmt.Fprintf(b, `<a href="/activity?%s">Next</a>`,
			templ.EscapeString(filterQuery(filter, page.Page+1).Encode()))
	}
	b.WriteString(`</nav>`)
}

// filterQuery encodes a filter back into query parameters. A zero page is
// left out.
func filterQuery(f FeedFilter, page int) url.Values {
	v := url.Values{}
	if f.Collection != "" {
		v.Set("collection", string(f.Collection))
	}
	if f.Action != "" {
		v.Set("action", string(f.Action))
	}
	if f.ActorID != "" {
		v.Set("actor", f.ActorID)
	}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	if f.Since != nil {
		v.Set("since", f.Since.Format("2006-01-02T15:04:05Z07:00"))
	}
	if f.Until != nil {
		v.Set("until", f.Until.Format("2006-01-02T15:04:05Z07:00"))
	}
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	return v
}
