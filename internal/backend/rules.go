package backend

// Rules are the access rules a database enforces on every request.
type Rules struct {
	// ReadDenied rejects listeners with a permission error.
	ReadDenied bool
	// WriteDenied rejects every write with a permission error.
	WriteDenied bool
}

// AllowAll is the default rule set.
var AllowAll = Rules{}
