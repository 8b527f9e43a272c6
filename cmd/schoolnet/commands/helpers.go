package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/gradecam/schoolnet-client/internal/constants"
	"github.com/gradecam/schoolnet-client/pkg/schoolnet"
	"github.com/gradecam/schoolnet-client/pkg/snclient"
)

// Common string constants used throughout the commands package.
const (
	NotAvailable = "N/A"
	Masked       = "***"

	defaultJSONIndent = 2
)

// canonicalKeys are the config keys that accept aliases.
var canonicalKeys = []string{"clientId", "clientSecret", "scope", "baseUrl"}

// clientFactory builds the API client; tests replace it.
var clientFactory = snclient.New

// stdinIsTerminal reports whether secrets can be prompted for.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(syscall.Stdin))
}

// LoadClientConfig assembles a schoolnet.Config from viper (flags, config
// file and SCHOOLNET_* environment variables).
func LoadClientConfig() (*schoolnet.Config, error) {
	values := map[string]interface{}{}

	for _, key := range canonicalKeys {
		for _, alias := range schoolnet.ConfigKeyAliases(key) {
			if v := viper.GetString(alias); v != "" {
				values[alias] = v
			}
		}
	}

	config := schoolnet.ConfigFromMap(values)

	if config.BaseURL == "" {
		return nil, constants.ErrNoBaseURL
	}

	if config.ClientID == "" {
		return nil, constants.ErrNoClientID
	}

	config.LogLevel = viper.GetString("log_level")
	config.Debug = viper.GetBool("debug")
	config.RetryMax = viper.GetInt("retry_max")

	if config.ClientSecret == "" {
		secret, err := promptSecret()
		if err != nil {
			return nil, err
		}

		config.ClientSecret = secret
	}

	cache, err := loadTokenCache()
	if err != nil {
		return nil, err
	}

	config.TokenCache = cache

	return config, nil
}

func promptSecret() (string, error) {
	if !stdinIsTerminal() {
		return "", constants.ErrNoClientSecret
	}

	fmt.Fprint(os.Stderr, "Client secret: ")

	secretBytes, err := term.ReadPassword(int(syscall.Stdin))

	fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", fmt.Errorf("reading client secret: %w", err)
	}

	return strings.TrimSpace(string(secretBytes)), nil
}

// loadTokenCache builds the shared token store named by cache.type, if any.
func loadTokenCache() (schoolnet.Cache, error) {
	cacheType := viper.GetString("cache.type")
	if cacheType == "" {
		return nil, nil //nolint:nilnil // no shared cache configured
	}

	cacheConfig := &schoolnet.CacheConfig{
		Type:    schoolnet.CacheType(cacheType),
		MaxSize: viper.GetInt("cache.max_size"),
	}

	if cacheConfig.Type == schoolnet.CacheTypeNATS {
		cacheConfig.NATS = &schoolnet.NATSKVConfig{
			URL:    viper.GetString("cache.nats_url"),
			Bucket: viper.GetString("cache.bucket"),
			TTL:    viper.GetDuration("cache.ttl"),
		}
	}

	cache, err := schoolnet.NewCacheFromConfig(cacheConfig)
	if err != nil {
		return nil, fmt.Errorf("creating token cache: %w", err)
	}

	return layeredTokenCache(cacheConfig, cache), nil
}

// layeredTokenCache keeps a process-local copy in front of a NATS KV bucket.
func layeredTokenCache(config *schoolnet.CacheConfig, backend schoolnet.Cache) schoolnet.Cache {
	if config.Type != schoolnet.CacheTypeNATS {
		return backend
	}

	return schoolnet.NewCacheChain(schoolnet.NewMemoryCache(config.MaxSize), backend)
}

// CreateClient builds a client from the current configuration.
func CreateClient(ctx context.Context) (*snclient.Client, error) {
	config, err := LoadClientConfig()
	if err != nil {
		return nil, err
	}

	client, err := clientFactory(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}

	return client, nil
}

// ParseRef turns a command argument into a Ref: a JSON object is resolved
// through its id fields, anything else is a bare id.
func ParseRef(arg string) (schoolnet.Ref, error) {
	arg = strings.TrimSpace(arg)
	if !strings.HasPrefix(arg, "{") {
		return schoolnet.ID(arg), nil
	}

	record, err := ParseRecord([]byte(arg))
	if err != nil {
		return schoolnet.Ref{}, err
	}

	return schoolnet.RefFromRecord(record), nil
}

// ParseRecord decodes a JSON object.
func ParseRecord(data []byte) (schoolnet.Record, error) {
	var record schoolnet.Record

	err := json.Unmarshal(data, &record)
	if err != nil || record == nil {
		return nil, fmt.Errorf("%w: %s", constants.ErrInvalidJSONInput, strings.TrimSpace(string(data)))
	}

	return record, nil
}

// ParseDate accepts YYYY-MM-DD or the API's MM-DD-YYYY.
func ParseDate(value string) (time.Time, error) {
	for _, layout := range []string{time.DateOnly, constants.ModifiedSinceLayout, time.RFC3339} {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", constants.ErrInvalidDate, value)
}

// ListFlags holds the paging flags shared by list commands.
type ListFlags struct {
	Limit     int
	Offset    int
	Recursive bool
	Query     []string
}

func addListFlags(cmd *cobra.Command, flags *ListFlags) {
	cmd.Flags().IntVar(&flags.Limit, "limit", 0, "page size (fetches a single page unless --recursive)")
	cmd.Flags().IntVar(&flags.Offset, "offset", 0, "starting offset (fetches a single page unless --recursive)")
	cmd.Flags().BoolVar(&flags.Recursive, "recursive", false, "keep paging after an explicit --limit/--offset")
	cmd.Flags().StringArrayVar(&flags.Query, "query", nil, "extra query parameter as key=value (repeatable)")
}

// Options converts the flags into ListOptions. Only flags the user actually
// set switch off automatic paging.
func (f *ListFlags) Options(cmd *cobra.Command) *schoolnet.ListOptions {
	opts := schoolnet.NewListOptions().WithRecursive(f.Recursive)

	if cmd.Flags().Changed("limit") {
		opts.WithLimit(f.Limit)
	}

	if cmd.Flags().Changed("offset") {
		opts.WithOffset(f.Offset)
	}

	for _, pair := range f.Query {
		key, value, _ := strings.Cut(pair, "=")
		opts.WithQuery(key, value)
	}

	return opts
}

// outputFormat returns the requested format, defaulting to a table on a
// terminal and JSON otherwise.
func outputFormat(w io.Writer) (string, error) {
	format := strings.ToLower(viper.GetString("output"))

	switch format {
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		return format, nil
	case "":
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return constants.FormatTable, nil
		}

		return constants.FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, format)
	}
}

// Output writes v as JSON or YAML, or as a table when it is a record list.
func Output(w io.Writer, v interface{}) error {
	format, err := outputFormat(w)
	if err != nil {
		return err
	}

	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", strings.Repeat(" ", defaultJSONIndent))

		return encoder.Encode(v)
	case constants.FormatYAML:
		return outputYAML(w, v)
	default:
		switch val := v.(type) {
		case []schoolnet.Record:
			return renderRecordsTable(w, val)
		case schoolnet.Record:
			return renderPropertyTable(w, val)
		default:
			return outputYAML(w, v)
		}
	}
}

func outputYAML(w io.Writer, v interface{}) error {
	// yaml.v3 cannot encode json.Marshaler values directly.
	if marshaler, ok := v.(json.Marshaler); ok {
		data, err := marshaler.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encoding output: %w", err)
		}

		var generic interface{}
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("encoding output: %w", err)
		}

		v = generic
	}

	encoder := yaml.NewEncoder(w)
	defer encoder.Close()

	return encoder.Encode(v)
}

// preferredColumns are shown first when present.
var preferredColumns = []string{"id", "instanceId", "institutionId", "sectionId", "staffId", "name", "title"}

// renderRecordsTable prints scalar fields as columns.
func renderRecordsTable(w io.Writer, records []schoolnet.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No results")

		return err
	}

	columns := tableColumns(records)

	table := tablewriter.NewWriter(w)
	table.Header(toCells(columns)...)

	for _, record := range records {
		row := make([]string, len(columns))
		for i, column := range columns {
			row[i] = cellValue(record[column])
		}

		_ = table.Append(toCells(row)...)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func renderPropertyTable(w io.Writer, record schoolnet.Record) error {
	keys := make([]string, 0, len(record))
	for key := range record {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	for _, key := range keys {
		_ = table.Append(key, cellValue(record[key]))
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func tableColumns(records []schoolnet.Record) []string {
	seen := map[string]bool{}

	var scalar []string

	for _, record := range records {
		for key, value := range record {
			if seen[key] || !isScalar(value) {
				continue
			}

			seen[key] = true

			scalar = append(scalar, key)
		}
	}

	sort.Strings(scalar)

	columns := make([]string, 0, len(scalar))

	for _, key := range preferredColumns {
		if seen[key] {
			columns = append(columns, key)
		}
	}

	for _, key := range scalar {
		if !slices.Contains(preferredColumns, key) {
			columns = append(columns, key)
		}
	}

	return columns
}

func isScalar(v interface{}) bool {
	switch v.(type) {
	case nil, string, float64, bool, json.Number:
		return true
	default:
		return false
	}
}

func cellValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return NotAvailable
		}

		return string(data)
	}
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}

	return cells
}

// maskSecret hides all but the last four characters.
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}

	if len(secret) <= 4 {
		return Masked
	}

	return Masked + secret[len(secret)-4:]
}
