package constants

// Field names - the snake_case column names used in storage and SQL.
const (
	// Primary / shared fields
	FieldID          = "id"
	FieldName        = "name"
	FieldDescription = "description"
	FieldOwnerID     = "owner_id"
	FieldUserID      = "user_id"
	FieldSheetID     = "sheet_id"
	FieldCreatedAt   = "created_at"
	FieldUpdatedAt   = "updated_at"
	FieldIsActive    = "is_active"
	FieldIsDeleted   = "is_deleted"
	FieldDeletedAt   = "deleted_at"
	FieldMetadata    = "metadata"
	FieldSettings    = "settings"
	FieldPosition    = "position"

	// Column definition fields
	FieldColumnType      = "type"
	FieldWidth           = "width"
	FieldIsRequired      = "is_required"
	FieldIsUnique        = "is_unique"
	FieldDefaultValue    = "default_value"
	FieldValidationRules = "validation_rules"
	FieldFormatOptions   = "format_options"

	// Cell fields
	FieldRowID             = "row_id"
	FieldColumnID          = "column_id"
	FieldValue             = "value"
	FieldFormattedValue    = "formatted_value"
	FieldValidationStatus  = "validation_status"
	FieldValidationMessage = "validation_message"
	FieldVersion           = "version"

	// Public link fields
	FieldAccessKey   = "access_key"
	FieldCanView     = "can_view"
	FieldCanEdit     = "can_edit"
	FieldCanDelete   = "can_delete"
	FieldCanManage   = "can_manage"
	FieldCanDownload = "can_download"
	FieldExpiresAt   = "expires_at"
	FieldCreatedBy   = "created_by"

	// History fields
	FieldActorID = "actor_id"
	FieldAction  = "action"
	FieldDetails = "details"

	// Grant fields
	FieldPermissionLevel = "permission_level"
	FieldGrantedBy       = "granted_by"
	FieldFolderID        = "folder_id"
	FieldTrackerID       = "tracker_id"

	// User fields
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldIsAdmin  = "is_admin"

	// Session fields
	FieldToken        = "token"
	FieldIPAddress    = "ip_address"
	FieldUserAgent    = "user_agent"
	FieldIsRevoked    = "is_revoked"
	FieldLastActivity = "last_activity"

	// Material item fields
	FieldCategory = "category"
	FieldUnit     = "unit"
	FieldQuantity = "quantity"
	FieldLocation = "location"
	FieldNotes    = "notes"
)

// JSON response keys
const (
	ResponseError = "error"
	FieldMessage  = "message"
)

// ContextKeyUser is the gin context key holding the authenticated session.
const ContextKeyUser = "user"

// HTTP surface
const (
	HeaderAuthorization = "Authorization"
	SessionCookieName   = "fieldgrid_session"
)
