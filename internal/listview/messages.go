package listview

// Notification texts of the list and detail pages
const (
	MsgLoadFeaturesFailed     = "Failed to load features"
	MsgLoadUsersFailed        = "Failed to load users"
	MsgLoadEnvironmentsFailed = "Failed to load environments"
	MsgLoadNamespacesFailed   = "Failed to load namespaces"
	MsgLoadDashboardFailed    = "Failed to load dashboard statistics"
	MsgLoadFeatureFailed      = "Failed to load feature details"
	MsgLoadEnvironmentFailed  = "Failed to load environment details"
	MsgLoadNamespaceFailed    = "Failed to load namespace details"

	MsgFeatureEnabled      = "Feature enabled"
	MsgFeatureDisabled     = "Feature disabled"
	MsgToggleFailed        = "Failed to toggle feature"
	MsgFeatureCreated      = "Feature created successfully"
	MsgFeatureCreateFailed = "Failed to create feature"
	MsgFeatureUpdated      = "Feature updated successfully"
	MsgFeatureUpdateFailed = "Failed to update feature"
	MsgFeatureDeleted      = "Feature deleted successfully"
	MsgFeatureDeleteFailed = "Failed to delete feature"

	MsgUserCreated      = "User created successfully"
	MsgUserCreateFailed = "Failed to create user"
	MsgUserUpdated      = "User updated successfully"
	MsgUserUpdateFailed = "Failed to update user"
	MsgUserDeleted      = "User deleted successfully"
	MsgUserDeleteFailed = "Failed to delete user"

	MsgEnvironmentCreated      = "Environment created successfully"
	MsgEnvironmentCreateFailed = "Failed to create environment"
	MsgEnvironmentDeleted      = "Environment deleted successfully"
	MsgEnvironmentDeleteFailed = "Failed to delete environment"

	MsgNamespaceCreated      = "Namespace created successfully"
	MsgNamespaceCreateFailed = "Failed to create namespace"
	MsgNamespaceDeleted      = "Namespace deleted successfully"
	MsgNamespaceDeleteFailed = "Failed to delete namespace"
)
