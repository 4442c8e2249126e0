package protocol

// Message type constants for the external team channel.
const (
	// WMS -> external team (published on the requests topic)
	TypeExternalRequest = "external.request"
	TypeTicketUpdate    = "ticket.update"

	// External team -> WMS (published on the confirmations topic)
	TypeExternalConfirm = "external.confirm"
)

// Roles for Address.Role.
const (
	RoleWMS      = "wms"
	RoleExternal = "external"
)

// Request kinds carried in ExternalRequest.Kind.
const (
	KindInterface = "interface"
	KindDetails   = "details"
)

// Protocol version.
const Version = 1
