package context

type Key string

const (
	Claims Key = "claims"
	User   Key = "user"
	Params Key = "params"
)
