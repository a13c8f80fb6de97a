// Package registry implements the HTTPS client against a Node package
// registry: process-memoized package metadata fetches and semver range
// resolution, grounded on the teacher's internal/client.APIClient (pooled
// retryablehttp transport) and on the resolver in
// _examples/other_examples/.../trywpm-cli/pkg/pm/resolution/resolver.go.
package registry

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-retryablehttp"
)

// Package is the registry's document for one package name.
type Package struct {
	Name     string                    `json:"name"`
	DistTags map[string]string         `json:"dist-tags"`
	Versions map[string]*VersionRecord `json:"versions"`
}

// Dist carries the tarball location for a version record.
type Dist struct {
	Tarball   string `json:"tarball"`
	Integrity string `json:"integrity,omitempty"`
}

// VersionRecord is one published version of a package.
type VersionRecord struct {
	Version              string            `json:"version"`
	Dist                 Dist              `json:"dist"`
	Dependencies         map[string]string `json:"dependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
	Scripts              map[string]string `json:"scripts"`
	Bin                  json.RawMessage   `json:"bin,omitempty"`
	OS                   []string          `json:"os"`
	CPU                  []string          `json:"cpu"`
}

// Client fetches package metadata over HTTPS with a process-local memo.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
	logger  hclog.Logger

	mu    sync.Mutex
	cache map[string]*cacheEntry
}

type cacheEntry struct {
	once sync.Once
	pkg  *Package
	err  error
}

// NewClient builds a registry client pointed at baseURL, pooling keep-alive
// connections the way internal/client.NewClient configures retryablehttp.
func NewClient(baseURL string, logger hclog.Logger) *Client {
	transport := &http.Transport{
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     30 * time.Second,
	}
	httpClient := &retryablehttp.Client{
		HTTPClient: &http.Client{
			Transport: transport,
			Timeout:   60 * time.Second,
		},
		RetryWaitMin: 200 * time.Millisecond,
		RetryWaitMax: 2 * time.Second,
		RetryMax:     3,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		Backoff:      retryablehttp.DefaultBackoff,
		Logger:       logger,
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpClient,
		logger:  logger.Named("registry"),
		cache:   map[string]*cacheEntry{},
	}
}

// GetPackage fetches {base}/{name}, memoizing the result for the lifetime
// of the process (spec section 4.2).
func (c *Client) GetPackage(name string) (*Package, error) {
	c.mu.Lock()
	entry, ok := c.cache[name]
	if !ok {
		entry = &cacheEntry{}
		c.cache[name] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.pkg, entry.err = c.fetchPackage(name)
	})
	return entry.pkg, entry.err
}

func (c *Client) fetchPackage(name string) (*Package, error) {
	// Scoped names contain '/' and must not be percent-encoded, per the
	// registry convention documented in spec section 6.
	url := c.baseURL + "/" + name
	req, err := retryablehttp.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{Name: name, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Name: name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &PackageNotFoundError{Name: name, Suggestions: suggestions(name)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &NetworkError{Name: name, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Name: name, Err: err}
	}

	var pkg Package
	if err := json.Unmarshal(body, &pkg); err != nil {
		return nil, &ParseError{Name: name, Err: err}
	}
	pkg.Name = name
	return &pkg, nil
}

// ResolveVersion picks the version record matching rangeSpec, per spec
// section 4.2: a literal dist-tag hit first, then greatest-by-semver
// amongst versions satisfying the range, falling back to "*" if the range
// itself fails to parse.
func (c *Client) ResolveVersion(pkg *Package, rangeSpec string) (*VersionRecord, error) {
	if version, ok := pkg.DistTags[rangeSpec]; ok {
		if rec, ok := pkg.Versions[version]; ok {
			return rec, nil
		}
	}

	constraint, err := semver.NewConstraint(rangeSpec)
	if err != nil {
		constraint, _ = semver.NewConstraint("*")
	}

	var best *VersionRecord
	var bestVer *semver.Version
	available := make([]string, 0, len(pkg.Versions))
	for raw, rec := range pkg.Versions {
		available = append(available, raw)
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		if !constraint.Check(v) {
			continue
		}
		if bestVer == nil || v.GreaterThan(bestVer) {
			bestVer = v
			best = rec
		}
	}
	if best == nil {
		sort.Sort(sort.Reverse(sort.StringSlice(available)))
		return nil, &VersionNotFoundError{Name: pkg.Name, Range: rangeSpec, Available: available}
	}
	return best, nil
}

// suggestions produces up to 5 heuristic spelling corrections for a 404'd
// package name (spec section 4.2).
func suggestions(name string) []string {
	if strings.HasPrefix(name, "@") {
		return nil
	}
	out := []string{
		"@types/" + name,
		name + "-js",
		name + "js",
	}
	if strings.Contains(name, "-") {
		out = append(out, strings.ReplaceAll(name, "-", ""))
	}
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

// SplitAlias parses a "npm:<actual-name>@<range>" range string, as used by
// an alias dependency declaration (spec section 4.2 "Alias parsing").
// Scoped names split on the second "@".
func SplitAlias(rangeSpec string) (actualName, actualRange string, ok bool) {
	rest := strings.TrimPrefix(rangeSpec, "npm:")
	if rest == rangeSpec {
		return "", "", false
	}
	if strings.HasPrefix(rest, "@") {
		idx := strings.Index(rest[1:], "@")
		if idx < 0 {
			return rest, "latest", true
		}
		return rest[:idx+1], rest[idx+2:], true
	}
	idx := strings.Index(rest, "@")
	if idx < 0 {
		return rest, "latest", true
	}
	return rest[:idx], rest[idx+1:], true
}

// Error kinds, per spec section 7.

// PackageNotFoundError is returned when the registry responds 404.
type PackageNotFoundError struct {
	Name        string
	Suggestions []string
}

func (e *PackageNotFoundError) Error() string {
	return fmt.Sprintf("package %q not found", e.Name)
}

// VersionNotFoundError is returned when no version satisfies a range.
type VersionNotFoundError struct {
	Name      string
	Range     string
	Available []string
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("no version of %q satisfies range %q", e.Name, e.Range)
}

// NetworkError wraps a transport failure or an unexpected status code.
type NetworkError struct {
	Name       string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("network error fetching %q: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("network error fetching %q: status %d", e.Name, e.StatusCode)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError is returned when a registry response fails to decode as JSON.
type ParseError struct {
	Name string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse registry response for %q: %v", e.Name, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
