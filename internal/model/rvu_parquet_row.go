package model

// RVUParquetRow mirrors the Parquet schema of a physician fee schedule RVU
// extract, one row per (code, modifier). Money and RVU fields are float64
// matching the Parquet representation; fees get converted to integer cents
// during normalization.
type RVUParquetRow struct {
	Year        int32   `parquet:"year"`
	HCPCSCode   string  `parquet:"hcpcs_code"`
	Modifier    *string `parquet:"modifier,optional"`
	Description string  `parquet:"description"`

	// StatusCode is the schedule's payability indicator, e.g. "A" active,
	// "B" bundled, "C" carrier-priced, "I" informational.
	StatusCode *string `parquet:"status_code,optional"`

	WorkRVU     *float64 `parquet:"work_rvu,optional"`
	FacPERVU    *float64 `parquet:"fac_pe_rvu,optional"`
	NonFacPERVU *float64 `parquet:"non_fac_pe_rvu,optional"`
	MPRVU       *float64 `parquet:"mp_rvu,optional"`

	// National fee amounts, when the extract carries them pre-computed.
	FacFee    *float64 `parquet:"fac_fee,optional"`
	NonFacFee *float64 `parquet:"non_fac_fee,optional"`

	ConversionFactor *float64 `parquet:"conversion_factor,optional"`
}
