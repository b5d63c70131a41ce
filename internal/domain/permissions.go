package domain

// Role names referenced by the admin surface. Anything else seeded into the
// roles table is opaque to this layer.
const (
	RoleAdmin  = "ADMIN"
	RoleEditor = "EDITOR"
)

// Baseline permission catalog. Resource/action pairs beyond these may be
// provisioned operationally; the catalog only covers what the seeded roles
// need.
var BaselinePermissions = []PermissionRef{
	{Resource: "users", Action: "read"},
	{Resource: "users", Action: "write"},
	{Resource: "users", Action: "invite"},
	{Resource: "roles", Action: "read"},
	{Resource: "roles", Action: "write"},
	{Resource: "audit", Action: "read"},
	{Resource: "updates", Action: "read"},
	{Resource: "updates", Action: "write"},
}
