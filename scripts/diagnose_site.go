// Standalone diagnostic for onboarding a new site: checks the REST API,
// probes the usual sitemap locations, and validates any feed URLs, without
// touching the application packages. Run with:
//
//	go run scripts/diagnose_site.go https://blog.example.com [feed-url ...]
package main

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"
)

// probePause spaces requests out so the target site never sees a burst.
const probePause = 500 * time.Millisecond

const probeTimeout = 30 * time.Second

var httpc = &http.Client{Timeout: probeTimeout}

// CheckResult is one row of the diagnostic report.
type CheckResult struct {
	Kind       string `json:"kind"` // rest_api, sitemap, feed
	URL        string `json:"url"`
	Status     string `json:"status"`
	HTTPStatus int    `json:"http_status,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Entries    int    `json:"entries,omitempty"`
	Error      string `json:"error,omitempty"`
	ElapsedMS  int64  `json:"elapsed_ms"`
}

// restRoot is the subset of the /wp-json discovery document we check
type restRoot struct {
	Name       string   `json:"name"`
	URL        string   `json:"url"`
	Namespaces []string `json:"namespaces"`
}

// sitemapIndex and urlSet cover the two sitemap document shapes. Both kinds
// of child element carry a single <loc>, so one ref type serves them.
type sitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	Sitemaps []sitemapRef `xml:"sitemap"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	URLs    []sitemapRef `xml:"url"`
}

type sitemapRef struct {
	Loc string `xml:"loc"`
}

// rssDoc and atomDoc share an entry shape; RSS fills PubDate, Atom UpdatedAt.
type rssDoc struct {
	Items []feedEntry `xml:"channel>item"`
}

type atomDoc struct {
	Entries []feedEntry `xml:"entry"`
}

type feedEntry struct {
	Title     string `xml:"title"`
	PubDate   string `xml:"pubDate"`
	UpdatedAt string `xml:"updated"`
}

// sitemapCandidates are the locations WordPress installs commonly serve.
var sitemapCandidates = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/wp-sitemap.xml",
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: go run scripts/diagnose_site.go <base-url> [feed-url ...]")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Feed URLs can also come from DISCOVERY_FEED_URLS (comma-separated).")
		os.Exit(1)
	}
	baseURL := strings.TrimRight(os.Args[1], "/")
	feedURLs := feedArgs(os.Args[2:])

	log.Printf("Diagnosing site: %s", baseURL)

	var results []CheckResult

	log.Println("[1/3] Checking REST API...")
	results = append(results, checkRESTAPI(baseURL))

	log.Println("[2/3] Probing sitemap locations...")
	for _, candidate := range sitemapCandidates {
		time.Sleep(probePause)
		results = append(results, checkSitemap(baseURL+candidate))
	}

	log.Printf("[3/3] Checking %d feed(s)...", len(feedURLs))
	for i, feedURL := range feedURLs {
		log.Printf("  [%d/%d] %s", i+1, len(feedURLs), feedURL)
		time.Sleep(probePause)
		results = append(results, checkFeed(feedURL))
	}

	printReport(baseURL, results)
	writeJSONReport(results)
}

// feedArgs merges CLI feed arguments with the DISCOVERY_FEED_URLS fallback.
func feedArgs(args []string) []string {
	if len(args) > 0 {
		return args
	}
	var urls []string
	for _, u := range strings.Split(os.Getenv("DISCOVERY_FEED_URLS"), ",") {
		if trimmed := strings.TrimSpace(u); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	return urls
}

// fetchInto runs one GET and fills the transport-level fields of res.
// The returned body is nil when the result already settled as a failure.
func fetchInto(res *CheckResult, target, accept string) []byte {
	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		res.Status = "request_error"
		res.Error = err.Error()
		return nil
	}
	req.Header.Set("User-Agent", "ContentForge-Diagnostic/1.0")
	req.Header.Set("Accept", accept)

	started := time.Now()
	resp, err := httpc.Do(req)
	res.ElapsedMS = time.Since(started).Milliseconds()
	if err != nil {
		res.Status = "http_error"
		res.Error = err.Error()
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			res.Status = "timeout"
			res.Error = fmt.Sprintf("no response within %v", probeTimeout)
		}
		return nil
	}
	defer resp.Body.Close()

	res.HTTPStatus = resp.StatusCode
	switch {
	case resp.StatusCode == http.StatusNotFound:
		res.Status = "missing"
		return nil
	case resp.StatusCode != http.StatusOK:
		res.Status = "http_error"
		res.Error = "unexpected status " + resp.Status
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		res.Status = "read_error"
		res.Error = err.Error()
		return nil
	}
	return body
}

func checkRESTAPI(baseURL string) CheckResult {
	res := CheckResult{Kind: "rest_api", URL: baseURL + "/wp-json"}
	body := fetchInto(&res, res.URL, "application/json")
	if body == nil {
		return res
	}

	var root restRoot
	if err := json.Unmarshal(body, &root); err != nil {
		res.Status = "parse_error"
		res.Error = fmt.Sprintf("response is not a REST API document: %v", err)
		return res
	}
	if !slices.Contains(root.Namespaces, "wp/v2") {
		res.Status = "parse_error"
		res.Error = "REST API reachable but wp/v2 namespace is missing"
		return res
	}

	res.Status = "ok"
	res.Detail = root.Name
	return res
}

func checkSitemap(target string) CheckResult {
	res := CheckResult{Kind: "sitemap", URL: target}
	body := fetchInto(&res, target, "application/xml, text/xml")
	if body == nil {
		return res
	}

	var index sitemapIndex
	if xml.Unmarshal(body, &index) == nil && len(index.Sitemaps) > 0 {
		res.Status = "ok"
		res.Detail = "sitemap index"
		res.Entries = len(index.Sitemaps)
		return res
	}

	var set urlSet
	if xml.Unmarshal(body, &set) == nil {
		if len(set.URLs) == 0 {
			res.Status = "empty"
			res.Error = "sitemap has no URLs"
			return res
		}
		res.Status = "ok"
		res.Detail = "url set"
		res.Entries = len(set.URLs)
		return res
	}

	res.Status = "parse_error"
	snippet := body
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	res.Error = fmt.Sprintf("not a sitemap document, starts with %q", snippet)
	return res
}

func checkFeed(target string) CheckResult {
	res := CheckResult{Kind: "feed", URL: target}
	body := fetchInto(&res, target, "application/rss+xml, application/atom+xml, application/xml, text/xml")
	if body == nil {
		return res
	}

	var rss rssDoc
	if xml.Unmarshal(body, &rss) == nil && len(rss.Items) > 0 {
		res.Status = "ok"
		res.Detail = "RSS, latest: " + rss.Items[0].PubDate
		res.Entries = len(rss.Items)
		return res
	}

	var atom atomDoc
	if xml.Unmarshal(body, &atom) == nil && len(atom.Entries) > 0 {
		res.Status = "ok"
		res.Detail = "Atom, latest: " + atom.Entries[0].UpdatedAt
		res.Entries = len(atom.Entries)
		return res
	}

	res.Status = "parse_error"
	res.Error = "neither RSS nor Atom parsed"
	return res
}

func printReport(baseURL string, results []CheckResult) {
	rule := strings.Repeat("=", 47)
	fmt.Println(rule)
	fmt.Println("Site Diagnostic Report")
	fmt.Printf("Site: %s\n", baseURL)
	fmt.Printf("Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Println(rule)
	fmt.Println()

	var working, broken int
	for _, res := range results {
		switch {
		case res.Status == "ok":
			working++
		case res.Status != "missing":
			broken++
		}
	}

	fmt.Println("SUMMARY:")
	fmt.Printf("  ✅ Working: %d\n", working)
	fmt.Printf("  ❌ Broken: %d\n", broken)
	fmt.Println()

	for _, res := range results {
		printResult(res)
	}

	fmt.Println("NEXT STEPS:")
	if firstOK(results, "rest_api") != "" {
		fmt.Printf("  CMS_BASE_URL=%s\n", baseURL)
	} else {
		fmt.Println("  REST API unreachable: publishing and post discovery will not work.")
	}
	if sitemapURL := firstOK(results, "sitemap"); sitemapURL != "" {
		fmt.Printf("  DISCOVERY_SITEMAP_URL=%s\n", sitemapURL)
	} else {
		fmt.Println("  No sitemap found: use feed or post discovery instead.")
	}
}

func printResult(res CheckResult) {
	switch res.Status {
	case "ok":
		fmt.Printf("✅ [%s] %s\n", res.Kind, res.URL)
		if res.Detail != "" {
			suffix := ""
			if res.Entries > 0 {
				suffix = fmt.Sprintf(" | Entries: %d", res.Entries)
			}
			fmt.Printf("   %s%s\n", res.Detail, suffix)
		}
		fmt.Printf("   Response: %dms | HTTP: %d\n", res.ElapsedMS, res.HTTPStatus)
	case "missing":
		fmt.Printf("➖ [%s] %s (not served)\n", res.Kind, res.URL)
	default:
		fmt.Printf("❌ [%s] %s\n", res.Kind, res.URL)
		fmt.Printf("   Status: %s | HTTP: %d\n", res.Status, res.HTTPStatus)
		if res.Error != "" {
			fmt.Printf("   Error: %s\n", res.Error)
		}
	}
	fmt.Println()
}

// firstOK returns the URL of the first passing check of the given kind.
func firstOK(results []CheckResult, kind string) string {
	for _, res := range results {
		if res.Kind == kind && res.Status == "ok" {
			return res.URL
		}
	}
	return ""
}

func writeJSONReport(results []CheckResult) {
	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		log.Printf("encode JSON report: %v", err)
		return
	}
	if err := os.WriteFile("site_diagnostic_report.json", out, 0o644); err != nil {
		log.Printf("write JSON report: %v", err)
		return
	}
	log.Println("JSON report written: site_diagnostic_report.json")
}
