package domain

import (
	"fmt"
	"path/filepath"
	"slices"
	"sort"
)

// Provider names with a built-in grammar.
const (
	ProviderGHRSST       = "ghrsst"
	ProviderRADS         = "rads"
	ProviderNesdisAMSR2  = "nesdis_amsr2"
	ProviderNesdisMiRS   = "nesdis_mirs"
	ProviderNesdisJPSSRR = "nesdis_jpssrr"
	ProviderJRRAOD       = "jrr_aod"
	ProviderSMAP         = "smap"
	ProviderSMOS         = "smos"
)

// mirsPlatforms maps MiRS platform codes to obs_type.
var mirsPlatforms = map[string]string{
	"ma1": "icec_amsu_ma1_l2",
	"n20": "icec_atms_n20_l2",
	"n21": "icec_atms_n21_l2",
	"npp": "icec_atms_npp_l2",
	"gpm": "icec_gmi_gpm_l2",
}

// amsr2Hemispheres maps the AMSR2 sea ice hemisphere suffix to obs_type.
var amsr2Hemispheres = map[string]string{
	"NH": "icec_amsr2_north",
	"SH": "icec_amsr2_south",
}

var builtinGrammars = map[string]Grammar{
	ProviderGHRSST: {
		Provider:     ProviderGHRSST,
		Layout:       LayoutTimestampPrefix,
		Product:      "GHRSST",
		FilePatterns: []string{"*-OSPO-L3?_GHRSST-*.nc", "*-STAR-L3?_GHRSST-*.nc"},
		ObsDirs:      []string{"sst"},
		Receipt:      ReceiptFilesystem,
	},
	ProviderRADS: {
		Provider:     ProviderRADS,
		Layout:       LayoutJulianDay,
		Product:      "rads_adt",
		FilePatterns: []string{"rads_adt_??_???????.nc"},
		ObsDirs:      []string{"wgrdbul/adt"},
		Receipt:      ReceiptFilesystem,
	},
	ProviderNesdisAMSR2: {
		Provider:     ProviderNesdisAMSR2,
		Layout:       LayoutHemisphere,
		Product:      "AMSR2-SEAICE",
		FilePatterns: []string{"*.nc"},
		ObsDirs:      []string{"seaice/pda"},
		Receipt:      ReceiptFilesystem,
		hemispheres:  amsr2Hemispheres,
	},
	ProviderNesdisMiRS: {
		Provider:     ProviderNesdisMiRS,
		Layout:       LayoutSwathMarkers,
		Product:      "NPR-MIRS-IMG",
		FilePatterns: []string{"*.nc"},
		ObsDirs: []string{
			"seaice_amsu",
			"seaice_atms_j1",
			"seaice_atms_j2",
			"seaice_atms_snpp",
			"seaice_mirs",
		},
		Receipt:    ReceiptFilesystem,
		Instrument: "MIRS",
		MinTokens:  6,
		platforms:  mirsPlatforms,
	},
	ProviderNesdisJPSSRR: {
		Provider:     ProviderNesdisJPSSRR,
		Layout:       LayoutSwathMarkers,
		Product:      "JRR-IceConcentration",
		FilePatterns: []string{"*.nc"},
		ObsDirs:      []string{"wgrdbul/IST"},
		Receipt:      ReceiptFilesystem,
	},
	ProviderJRRAOD: {
		Provider:     ProviderJRRAOD,
		Layout:       LayoutSwathMarkers,
		Product:      "JRR-AOD",
		FilePatterns: []string{"*.nc"},
		ObsDirs:      []string{"jrr_aod"},
		Receipt:      ReceiptMarker,
	},
	ProviderSMAP: {
		Provider:     ProviderSMAP,
		Layout:       LayoutISOSuffix,
		Product:      "SMAP_L2B_SSS_NRT",
		FilePatterns: []string{"*.h5"},
		ObsDirs:      []string{"wtxtbul/satSSS/SMAP"},
		Receipt:      ReceiptFilesystem,
		Satellite:    "SMAP",
		ObsType:      "sss_smap_l2",
		MinTokens:    7,
		TimeToken:    6,
	},
	ProviderSMOS: {
		Provider:     ProviderSMOS,
		Layout:       LayoutISOSuffix,
		Product:      "SM_OPER_MIR_OSUDP2",
		FilePatterns: []string{"*.nc"},
		ObsDirs:      []string{"wtxtbul/satSSS/SMOS"},
		Receipt:      ReceiptFilesystem,
		Satellite:    "SMOS",
		ObsType:      "sss_smos_l2",
		MinTokens:    6,
		TimeToken:    4,
	},
}

// LookupGrammar returns the built-in grammar for a provider.
func LookupGrammar(provider string) (Grammar, error) {
	g, ok := builtinGrammars[provider]
	if !ok {
		return Grammar{}, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	g.FilePatterns = slices.Clone(g.FilePatterns)
	g.ObsDirs = slices.Clone(g.ObsDirs)
	return g, nil
}

// ProviderNames lists the built-in providers in sorted order.
func ProviderNames() []string {
	names := make([]string, 0, len(builtinGrammars))
	for name := range builtinGrammars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CatalogConfig binds one provider grammar to its directories and store.
type CatalogConfig struct {
	Provider string
	Grammar  Grammar

	// BaseDirs are directory glob patterns, e.g. /dcom/*/sst.
	BaseDirs []string

	// StoreLocation identifies the persistent store (file path or table name).
	StoreLocation string
}

// NewCatalogConfig builds the configuration for a provider rooted at dcomRoot.
// When obsDirs is empty the grammar's default obs dirs are used.
func NewCatalogConfig(provider, dcomRoot string, obsDirs []string, storeLocation string) (CatalogConfig, error) {
	g, err := LookupGrammar(provider)
	if err != nil {
		return CatalogConfig{}, err
	}
	if len(obsDirs) == 0 {
		obsDirs = g.ObsDirs
	}

	baseDirs := make([]string, 0, len(obsDirs))
	for _, dir := range obsDirs {
		baseDirs = append(baseDirs, BaseDirPattern(dcomRoot, dir))
	}

	return CatalogConfig{
		Provider:      provider,
		Grammar:       g,
		BaseDirs:      baseDirs,
		StoreLocation: storeLocation,
	}, nil
}

// BaseDirPattern returns the dated directory glob <dcomRoot>/*/<obsDir>.
func BaseDirPattern(dcomRoot, obsDir string) string {
	return filepath.Join(dcomRoot, "*", obsDir)
}

// FilePatterns expands every base dir with every grammar file pattern.
func (c CatalogConfig) FilePatterns() []string {
	patterns := make([]string, 0, len(c.BaseDirs)*len(c.Grammar.FilePatterns))
	for _, dir := range c.BaseDirs {
		for _, p := range c.Grammar.FilePatterns {
			patterns = append(patterns, filepath.Join(dir, p))
		}
	}
	return patterns
}
