// Package sql embeds the reference schema migrations and query text.
package sql

import "embed"

// Migrations holds the schema files, applied in filename order.
//
//go:embed migrations
var Migrations embed.FS

//go:embed queries/fee_row.sql
var FeeRow string

//go:embed queries/latest_year.sql
var LatestYear string

//go:embed queries/locality_by_zip.sql
var LocalityByZIP string

//go:embed queries/locality_by_state.sql
var LocalityByState string

//go:embed queries/register_schedule_file.sql
var RegisterScheduleFile string

//go:embed queries/update_file_status.sql
var UpdateFileStatus string

//go:embed queries/transform_stage.sql
var TransformStage string

//go:embed queries/delete_staging_batch.sql
var DeleteStagingBatch string

//go:embed queries/analyze_reference.sql
var AnalyzeReference string

//go:embed queries/batch_max_year.sql
var BatchMaxYear string

//go:embed queries/activate_year.sql
var ActivateYear string

//go:embed queries/upsert_gpci_locality.sql
var UpsertGPCILocality string

//go:embed queries/upsert_zip_locality.sql
var UpsertZIPLocality string
