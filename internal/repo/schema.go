package repo

const (
	tableIssuers        = "issuers"
	tableTemplates      = "templates"
	tableTemplateAssets = "template_assets"
	tablePasses         = "passes"
	tableArtifacts      = "artifacts"
	tableRegistrations  = "registrations"
)

const (
	colIssuerID       = "issuer_id"
	colContainer      = "container"
	colTemplateID     = "template_id"
	colKind           = "kind"
	colStaticFields   = "static_fields"
	colRequiredAssets = "required_assets"
	colName           = "name"
	colData           = "data"
	colSerial         = "serial"
	colAuthToken      = "auth_token"
	colFieldValues    = "field_values"
	colVersion        = "version"
	colLastModified   = "last_modified"
	colCreatedAt      = "created_at"
	colArchive        = "archive"
	colManifest       = "manifest"
	colSignature      = "signature"
	colDeviceID       = "device_id"
	colPushToken      = "push_token"
	colRegisteredAt   = "registered_at"
)
