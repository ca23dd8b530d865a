package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Layout selects the tokenization rule a grammar applies to a basename.
type Layout int

const (
	// LayoutTimestampPrefix: YYYYMMDDHHMMSS-PROVIDER-..., "_" folded into "-".
	LayoutTimestampPrefix Layout = iota + 1
	// LayoutSwathMarkers: PRODUCT_version_SAT_sSTART_eEND_cCREATED.
	LayoutSwathMarkers
	// LayoutHemisphere: PRODUCT-NH|SH_version_SAT_sSTART_..., suffix selects obs_type.
	LayoutHemisphere
	// LayoutJulianDay: provider_product_SAT_YYYYDDD.ext, centered at noon.
	LayoutJulianDay
	// LayoutISOSuffix: PRODUCT_..._YYYYMMDDTHHMMSS[_...].ext.
	LayoutISOSuffix
)

func (l Layout) String() string {
	switch l {
	case LayoutTimestampPrefix:
		return "timestamp-prefix"
	case LayoutSwathMarkers:
		return "swath-markers"
	case LayoutHemisphere:
		return "hemisphere"
	case LayoutJulianDay:
		return "julian-day"
	case LayoutISOSuffix:
		return "iso-suffix"
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

// ReceiptSource says where a grammar takes the receipt time from.
type ReceiptSource int

const (
	// ReceiptNone leaves receipt time empty; the provider does not model latency.
	ReceiptNone ReceiptSource = iota
	// ReceiptFilesystem stamps the file's change time at ingestion.
	ReceiptFilesystem
	// ReceiptMarker reads the c (creation) marker encoded in the name.
	ReceiptMarker
)

func (s ReceiptSource) String() string {
	switch s {
	case ReceiptFilesystem:
		return "filesystem"
	case ReceiptMarker:
		return "marker"
	default:
		return "none"
	}
}

const (
	stampLayout     = "20060102150405"
	isoLayout       = "20060102T150405"
	julianDayLayout = "2006002"

	// Julian-day files are daily aggregates represented at local noon UTC.
	julianDayOffset = 12 * time.Hour
)

// Grammar is one row of the provider table: how to find a provider's files
// and how to turn a basename into a Record. Grammars are values; the tables
// they reference are shared and must not be modified.
type Grammar struct {
	Provider string
	Layout   Layout

	// Product is the leading product identifier a name must carry.
	Product string

	// FilePatterns are basename globs matched inside each obs dir.
	FilePatterns []string

	// ObsDirs are the default directories below <dcom_root>/*/.
	ObsDirs []string

	Receipt ReceiptSource

	// Fixed categorical values for names that do not encode them.
	Instrument string
	Satellite  string
	ObsType    string

	// MinTokens is the minimum "_" token count for marker and suffix layouts.
	MinTokens int

	// TimeToken is the token index holding the ISO timestamp.
	TimeToken int

	platforms   map[string]string
	hemispheres map[string]string
}

// Parse maps a path to a Record. It is deterministic, touches nothing on
// disk, and reports every mismatch as a *ParseError.
func (g Grammar) Parse(path string) (Record, error) {
	base := filepath.Base(path)

	var (
		rec Record
		err error
	)
	switch g.Layout {
	case LayoutTimestampPrefix:
		rec, err = g.parseTimestampPrefix(base)
	case LayoutSwathMarkers:
		rec, err = g.parseSwathMarkers(base)
	case LayoutHemisphere:
		rec, err = g.parseHemisphere(base)
	case LayoutJulianDay:
		rec, err = g.parseJulianDay(base)
	case LayoutISOSuffix:
		rec, err = g.parseISOSuffix(base)
	default:
		err = fmt.Errorf("unsupported layout %s", g.Layout)
	}
	if err != nil {
		return Record{}, &ParseError{Provider: g.Provider, Path: path, Reason: err.Error()}
	}

	rec.Filename = path
	return rec, nil
}

// PlatformObsType returns the obs_type mapped to a platform code.
func (g Grammar) PlatformObsType(platform string) (string, bool) {
	obsType, ok := g.platforms[strings.ToLower(platform)]
	return obsType, ok
}

// HemisphereObsType returns the obs_type selected by a hemisphere suffix.
func (g Grammar) HemisphereObsType(suffix string) (string, bool) {
	obsType, ok := g.hemispheres[suffix]
	return obsType, ok
}

// parseTimestampPrefix handles 20250316120000-OSPO-L3U_GHRSST-SSTsubskin-AVHRRF_MB-ACSPO.nc.
func (g Grammar) parseTimestampPrefix(base string) (Record, error) {
	parts := strings.Split(strings.ReplaceAll(stem(base), "_", "-"), "-")
	if len(parts) < 7 {
		return Record{}, fmt.Errorf("expected at least 7 tokens, got %d", len(parts))
	}

	stamp := parts[0]
	if len(stamp) != len(stampLayout) || !isDigits(stamp) {
		return Record{}, fmt.Errorf("leading token %q is not a 14-digit timestamp", stamp)
	}
	if g.Product != "" && parts[3] != g.Product {
		return Record{}, fmt.Errorf("product token %q, want %q", parts[3], g.Product)
	}

	obsTime, err := time.Parse(stampLayout, stamp)
	if err != nil {
		return Record{}, fmt.Errorf("timestamp %q: %w", stamp, err)
	}

	return Record{
		ObsTime:    obsTime,
		ObsType:    parts[4],
		Instrument: parts[5],
		Satellite:  parts[6],
	}, nil
}

// parseSwathMarkers handles JRR-AOD_v3r2_n21_s202503161200000_e..._c....nc.
func (g Grammar) parseSwathMarkers(base string) (Record, error) {
	parts := strings.Split(stem(base), "_")
	if len(parts) < max(g.MinTokens, 4) {
		return Record{}, fmt.Errorf("expected at least %d tokens, got %d", max(g.MinTokens, 4), len(parts))
	}
	if parts[0] != g.Product {
		return Record{}, fmt.Errorf("product %q, want %q", parts[0], g.Product)
	}

	rec, err := g.markerRecord(parts)
	if err != nil {
		return Record{}, err
	}
	rec.Instrument = g.Instrument

	if g.platforms != nil {
		obsType, ok := g.PlatformObsType(rec.Satellite)
		if !ok {
			return Record{}, fmt.Errorf("unrecognized platform %q", rec.Satellite)
		}
		rec.ObsType = obsType
	}
	return rec, nil
}

// parseHemisphere handles AMSR2-SEAICE-NH_v2r2_GW1_s202503140032240_e..._c....nc.
func (g Grammar) parseHemisphere(base string) (Record, error) {
	parts := strings.Split(stem(base), "_")
	if len(parts) < max(g.MinTokens, 4) {
		return Record{}, fmt.Errorf("expected at least %d tokens, got %d", max(g.MinTokens, 4), len(parts))
	}

	head := strings.Split(parts[0], "-")
	if len(head) != 3 || head[0]+"-"+head[1] != g.Product {
		return Record{}, fmt.Errorf("product %q, want %s-<hemisphere>", parts[0], g.Product)
	}
	obsType, ok := g.HemisphereObsType(head[2])
	if !ok {
		return Record{}, fmt.Errorf("unrecognized hemisphere %q", head[2])
	}

	rec, err := g.markerRecord(parts)
	if err != nil {
		return Record{}, err
	}
	rec.Instrument = head[0]
	rec.ObsType = obsType
	return rec, nil
}

// markerRecord reads satellite and s/c markers shared by the swath layouts.
func (g Grammar) markerRecord(parts []string) (Record, error) {
	obsTime, err := markerTime(parts[3], 's')
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		ObsTime:   obsTime,
		Satellite: parts[2],
		ObsType:   g.ObsType,
	}

	// The creation marker is optional unless the grammar reads receipt from it.
	if len(parts) > 5 {
		created, err := markerTime(parts[5], 'c')
		if err != nil {
			return Record{}, err
		}
		if g.Receipt == ReceiptMarker {
			rec.ReceiptTime = &created
		}
	} else if g.Receipt == ReceiptMarker {
		return Record{}, fmt.Errorf("missing creation marker")
	}
	return rec, nil
}

// parseJulianDay handles rads_adt_j3_2025075.nc.
func (g Grammar) parseJulianDay(base string) (Record, error) {
	parts := strings.Split(strings.ReplaceAll(base, ".", "_"), "_")
	if len(parts) != 5 {
		return Record{}, fmt.Errorf("expected 5 tokens, got %d", len(parts))
	}
	if parts[0]+"_"+parts[1] != g.Product {
		return Record{}, fmt.Errorf("product %q, want %q", parts[0]+"_"+parts[1], g.Product)
	}

	day := parts[3]
	if len(day) != len(julianDayLayout) || !isDigits(day) {
		return Record{}, fmt.Errorf("token %q is not YYYYDDD", day)
	}
	date, err := time.Parse(julianDayLayout, day)
	if err != nil {
		return Record{}, fmt.Errorf("julian day %q: %w", day, err)
	}

	return Record{
		ObsTime:    date.Add(julianDayOffset),
		Satellite:  parts[2],
		Instrument: g.Instrument,
		ObsType:    g.ObsType,
	}, nil
}

// parseISOSuffix handles SMAP_L2B_SSS_NRT_54047_A_20250315T011742.h5 and
// SM_OPER_MIR_OSUDP2_20250316T061318_20250316T070637_700_001_1.nc.
func (g Grammar) parseISOSuffix(base string) (Record, error) {
	s := stem(base)
	if !strings.HasPrefix(s, g.Product+"_") {
		return Record{}, fmt.Errorf("missing product prefix %q", g.Product)
	}

	parts := strings.Split(s, "_")
	if len(parts) < g.MinTokens || g.TimeToken >= len(parts) {
		return Record{}, fmt.Errorf("expected at least %d tokens, got %d", max(g.MinTokens, g.TimeToken+1), len(parts))
	}

	obsTime, err := time.Parse(isoLayout, parts[g.TimeToken])
	if err != nil {
		return Record{}, fmt.Errorf("timestamp %q: %w", parts[g.TimeToken], err)
	}

	return Record{
		ObsTime:    obsTime,
		Instrument: g.Instrument,
		Satellite:  g.Satellite,
		ObsType:    g.ObsType,
	}, nil
}

// markerTime parses an s/e/c marker such as s202503161200000. The trailing
// tenths digit is dropped.
func markerTime(token string, marker byte) (time.Time, error) {
	if len(token) < len(stampLayout)+1 || token[0] != marker {
		return time.Time{}, fmt.Errorf("token %q is not a %c marker", token, marker)
	}
	digits := token[1:]
	if !isDigits(digits) {
		return time.Time{}, fmt.Errorf("marker %q has non-numeric time", token)
	}
	t, err := time.Parse(stampLayout, digits[:len(stampLayout)])
	if err != nil {
		return time.Time{}, fmt.Errorf("marker %q: %w", token, err)
	}
	return t, nil
}

func stem(base string) string {
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
