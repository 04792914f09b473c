package refdata

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"supercli/internal/errors"
)

// Fetcher scrapes the ISO reference tables from iban.com and writes them as
// the Country,Code CSVs the lookups load.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher builds a fetcher. A nil client gets a 30 second default.
func NewFetcher(client *http.Client, userAgent string) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{client: client, userAgent: userAgent}
}

// FetchCountryCodes scrapes the country code page. The output pairs are
// (country, alpha-2 code), header row excluded.
func (f *Fetcher) FetchCountryCodes(ctx context.Context, url string) ([][2]string, error) {
	table, err := f.fetchFirstTable(ctx, url)
	if err != nil {
		return nil, err
	}

	countryIdx := columnIndex(table.header, "country")
	codeIdx := columnIndex(table.header, "alpha-2 code")
	if countryIdx < 0 {
		return nil, errors.MissingColumn("Country")
	}
	if codeIdx < 0 {
		return nil, errors.MissingColumn("Alpha-2 code")
	}

	var out [][2]string
	for _, row := range table.rows {
		if countryIdx >= len(row) || codeIdx >= len(row) {
			continue
		}
		country := SanitizeCountryName(row[countryIdx])
		code := strings.ToUpper(strings.TrimSpace(row[codeIdx]))
		if country == "" || len(code) != 2 {
			continue
		}
		out = append(out, [2]string{country, code})
	}
	if len(out) == 0 {
		return nil, errors.FetchFailed(url, fmt.Errorf("table contained no usable rows"))
	}
	return out, nil
}

// FetchCurrencyCodes scrapes the currency code page and merges each
// country with its currency name. The output pairs are (merged label,
// 3-letter currency code).
func (f *Fetcher) FetchCurrencyCodes(ctx context.Context, url string) ([][2]string, error) {
	table, err := f.fetchFirstTable(ctx, url)
	if err != nil {
		return nil, err
	}

	countryIdx := columnIndex(table.header, "country")
	currencyIdx := columnIndex(table.header, "currency")
	codeIdx := columnIndex(table.header, "code")
	if countryIdx < 0 {
		return nil, errors.MissingColumn("Country")
	}
	if currencyIdx < 0 {
		return nil, errors.MissingColumn("Currency")
	}
	if codeIdx < 0 {
		return nil, errors.MissingColumn("Code")
	}

	var out [][2]string
	for _, row := range table.rows {
		if countryIdx >= len(row) || currencyIdx >= len(row) || codeIdx >= len(row) {
			continue
		}
		merged := SanitizeCountryName(MergeCountryCurrency(row[countryIdx], row[currencyIdx]))
		code := strings.ToUpper(strings.TrimSpace(row[codeIdx]))
		if merged == "" || code == "" {
			continue
		}
		out = append(out, [2]string{merged, code})
	}
	if len(out) == 0 {
		return nil, errors.FetchFailed(url, fmt.Errorf("table contained no usable rows"))
	}
	return out, nil
}

// htmlTable is the first <table> of a page, split into header and body.
type htmlTable struct {
	header []string
	rows   [][]string
}

func (f *Fetcher) fetchFirstTable(ctx context.Context, url string) (*htmlTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.FetchFailed(url, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.FetchFailed(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.FetchFailed(url, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, errors.FetchFailed(url, err)
	}

	tableNode := findFirst(doc, "table")
	if tableNode == nil {
		return nil, errors.FetchFailed(url, fmt.Errorf("no table found on page"))
	}

	table := &htmlTable{}
	for _, tr := range findAll(tableNode, "tr") {
		var cells []string
		isHeader := false
		for child := tr.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != html.ElementNode {
				continue
			}
			switch child.Data {
			case "th":
				isHeader = true
				cells = append(cells, nodeText(child))
			case "td":
				cells = append(cells, nodeText(child))
			}
		}
		if len(cells) == 0 {
			continue
		}
		if isHeader || len(table.header) == 0 {
			table.header = cells
			continue
		}
		table.rows = append(table.rows, cells)
	}
	return table, nil
}

// columnIndex finds a header column by name, case-insensitive, spaces
// collapsed. The source pages have varied between "Alpha-2 code" and
// "Alpha-2 Code" over time.
func columnIndex(header []string, name string) int {
	want := strings.Join(strings.Fields(strings.ToLower(name)), " ")
	for idx, cell := range header {
		got := strings.Join(strings.Fields(strings.ToLower(cell)), " ")
		if got == want {
			return idx
		}
	}
	return -1
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findFirst(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	if n.Type == html.ElementNode && n.Data == tag {
		out = append(out, n)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		out = append(out, findAll(child, tag)...)
	}
	return out
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
