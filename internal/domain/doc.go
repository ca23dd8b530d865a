// Package domain models observation files delivered to the operational dcom
// tree and the filename conventions used to catalog them.
//
// # Data Source
//
// Satellite and in-situ products arrive irregularly under
//
//	<DCOMROOT>/<YYYYMMDD>/<obs_dir>/<file>
//
// where obs_dir is provider specific (e.g. "sst", "wgrdbul/adt",
// "seaice/pda"). Nothing about a file is trusted except its name and the
// moment it became visible on disk; the scientific content is never opened.
//
// # Filename Conventions
//
// Each provider family encodes the observation time differently. The grammar
// table in [builtinGrammars] maps a provider name to one [Layout]:
//
//	Timestamp prefix (GHRSST):
//	  20250316120000-OSPO-L3U_GHRSST-SSTsubskin-AVHRRF_MB-ACSPO.nc
//	  "_" is folded into "-"; token 0 must be exactly 14 digits.
//	  obs_type, instrument and satellite sit at tokens 4, 5 and 6.
//
//	Swath markers (NESDIS JPSS Risk Reduction, MiRS):
//	  JRR-AOD_v3r2_n21_s202503161200000_e202503161230000_c202503161245000.nc
//	  s/e/c markers carry start, end and creation time with a trailing
//	  tenths digit. obs_time is the start marker truncated to seconds.
//	  Satellite is token 2; MiRS maps it through a static platform table.
//
//	Hemisphere (AMSR2 sea ice):
//	  AMSR2-SEAICE-NH_v2r2_GW1_s202503140032240_e..._c....nc
//	  NH and SH select the north and south obs_type, anything else is rejected.
//
//	Julian day (RADS altimetry):
//	  rads_adt_j3_2025075.nc
//	  Daily aggregates; obs_time is the day at 12:00 UTC.
//
//	ISO suffix (SMAP, SMOS sea surface salinity):
//	  SMAP_L2B_SSS_NRT_54047_A_20250315T011742.h5
//	  SM_OPER_MIR_OSUDP2_20250316T061318_20250316T070637_700_001_1.nc
//
// All times are UTC.
//
// # Receipt Time
//
// Receipt time emulates operational latency. Depending on the grammar it is
// the file's change time on disk, the creation marker in the name, or absent.
// Records without a receipt time are never excluded by realtime emulation.
//
// # Parse Failures
//
// Directories are shared between products, so a name that does not match is
// an ordinary outcome. Parse returns a [*ParseError] that matches
// [ErrParseFailure]; it never panics on malformed input.
package domain
