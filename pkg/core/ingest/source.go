// Package ingest reads report text and metadata from the local data
// directory written by the crawler.
//
// Layout:
//
//	<root>/<stock_code>/<year>/<stock_code>_<year>_<type>.txt
//	<root>/<stock_code>/<year>/<stock_code>_<year>_<type>_metadata.json
//
// where <type> is the report type with "报告" removed (年度报告 -> 年度).
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"report_analysis/pkg/core/logging"
	"report_analysis/pkg/models"
)

var (
	// ErrNotFound is returned when a report file or its metadata is absent.
	ErrNotFound = errors.New("report not found")
	// ErrInvalidKey is returned for a key that is incomplete or would
	// resolve outside the data directory.
	ErrInvalidKey = errors.New("invalid report key")
)

const UnknownCompany = "未知公司"

// CrawlerMetadata is the metadata file written next to each report.
type CrawlerMetadata struct {
	CrawlerMetadata struct {
		Source    string `json:"source"`
		CrawlTime string `json:"crawl_time"`
		URL       string `json:"url"`
		Status    string `json:"status"`
	} `json:"crawler_metadata"`
	ReportMetadata *struct {
		CompanyName  string `json:"company_name"`
		StockCode    string `json:"stock_code"`
		ReportType   string `json:"report_type"`
		ReportPeriod string `json:"report_period"`
		PublishDate  string `json:"publish_date"`
	} `json:"report_metadata"`
}

// Key identifies one report.
type Key struct {
	StockCode  string `json:"stock_code"`
	Year       int    `json:"year"`
	ReportType string `json:"report_type"`
}

// NewKey builds a key and validates it.
func NewKey(stockCode string, year int, reportType string) (Key, error) {
	k := Key{StockCode: stockCode, Year: year, ReportType: reportType}
	if err := k.Validate(); err != nil {
		return Key{}, err
	}
	return k, nil
}

// Validate checks that every part is set and that the string parts are
// single path elements, since they name directories and files.
func (k Key) Validate() error {
	if k.StockCode == "" || k.Year <= 0 || k.ReportType == "" {
		return fmt.Errorf("%w: stock code, year and report type are required", ErrInvalidKey)
	}
	for _, part := range []string{k.StockCode, k.ReportType} {
		if !pathElement(part) {
			return fmt.Errorf("%w: %q is not a valid name", ErrInvalidKey, part)
		}
	}
	return nil
}

func pathElement(s string) bool {
	if s == "." || strings.Contains(s, "..") || strings.ContainsAny(s, "/\\\x00") {
		return false
	}
	return filepath.IsLocal(s) && filepath.Base(s) == s
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d/%s", k.StockCode, k.Year, k.ReportType)
}

// Period renders the report period shown in summaries, e.g. "2023年年度报告".
func (k Key) Period() string {
	return strconv.Itoa(k.Year) + "年" + k.ReportType
}

func (k Key) baseName() string {
	return fmt.Sprintf("%s_%d_%s", k.StockCode, k.Year, strings.ReplaceAll(k.ReportType, "报告", ""))
}

// Document is a loaded report.
type Document struct {
	Key      Key
	Text     string
	Metadata models.DocumentMetadata
}

type DirSource struct {
	root string
	log  zerolog.Logger
}

func NewDirSource(root string, log zerolog.Logger) *DirSource {
	return &DirSource{root: root, log: logging.For(log, "ingest")}
}

func (s *DirSource) dir(k Key) (string, error) {
	if err := k.Validate(); err != nil {
		return "", err
	}
	return filepath.Join(s.root, k.StockCode, strconv.Itoa(k.Year)), nil
}

// Text returns the plain text of a report. A .txt file is preferred; an
// .html or .htm file is converted to text.
func (s *DirSource) Text(k Key) (string, error) {
	dir, err := s.dir(k)
	if err != nil {
		return "", err
	}
	base := filepath.Join(dir, k.baseName())

	data, err := os.ReadFile(base + ".txt")
	if err == nil {
		return string(data), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("INGEST_READ_ERROR: %s: %w", k, err)
	}

	for _, ext := range []string{".html", ".htm"} {
		f, err := os.Open(base + ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("INGEST_READ_ERROR: %s: %w", k, err)
		}
		text, err := HTMLToText(f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("INGEST_HTML_ERROR: %s: %w", k, err)
		}
		return text, nil
	}

	s.log.Error().Str("report", k.String()).Str("path", base+".txt").Msg("report text file not found")
	return "", fmt.Errorf("%w: text for %s", ErrNotFound, k)
}

// Metadata reads the crawler metadata and projects it onto the document
// metadata used by analysis.
func (s *DirSource) Metadata(k Key) (*models.DocumentMetadata, error) {
	dir, err := s.dir(k)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, k.baseName()+"_metadata.json")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Error().Str("report", k.String()).Str("path", path).Msg("report metadata file not found")
		return nil, fmt.Errorf("%w: metadata for %s", ErrNotFound, k)
	}
	if err != nil {
		return nil, fmt.Errorf("INGEST_READ_ERROR: %s: %w", k, err)
	}

	var cm CrawlerMetadata
	if err := json.Unmarshal(data, &cm); err != nil {
		return nil, fmt.Errorf("INGEST_METADATA_INVALID: %s: %w", k, err)
	}

	company := ""
	if cm.ReportMetadata != nil {
		company = cm.ReportMetadata.CompanyName
	}
	if company == "" {
		company = UnknownCompany
	}
	return &models.DocumentMetadata{
		CompanyName:  company,
		StockCode:    k.StockCode,
		ReportType:   k.ReportType,
		ReportPeriod: k.Period(),
	}, nil
}

// Load returns text and metadata together.
func (s *DirSource) Load(k Key) (*Document, error) {
	text, err := s.Text(k)
	if err != nil {
		return nil, err
	}
	meta, err := s.Metadata(k)
	if err != nil {
		return nil, err
	}
	return &Document{Key: k, Text: text, Metadata: *meta}, nil
}
