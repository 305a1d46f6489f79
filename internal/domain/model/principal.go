package model

// PrincipalKind discriminates the two account families admitted on the
// realtime channel.
type PrincipalKind int8

const (
	KindUser PrincipalKind = iota + 1 // vendor account
	KindAdmin
)

func (k PrincipalKind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Principal is the closed set of authenticated actors. The sealed method
// keeps the set closed to this package, so kind dispatch in the aggregator
// and router cannot silently miss a variant.
type Principal interface {
	PrincipalID() string
	Kind() PrincipalKind
	DisplayName() string

	sealedPrincipal()
}

// Interface guards
var (
	_ Principal = (*UserAccount)(nil)
	_ Principal = (*AdminAccount)(nil)
)

// UserAccount is a vendor principal, owned by the persistence collaborator
// and read-only here.
type UserAccount struct {
	ID       string
	Name     string
	Phone    string
	Business string
	Active   bool
}

func (u *UserAccount) PrincipalID() string { return u.ID }
func (u *UserAccount) Kind() PrincipalKind { return KindUser }
func (u *UserAccount) DisplayName() string { return u.Name }
func (u *UserAccount) sealedPrincipal()    {}

// AdminAccount is an administrator principal.
type AdminAccount struct {
	ID     string
	Name   string
	Email  string
	Active bool
}

func (a *AdminAccount) PrincipalID() string { return a.ID }
func (a *AdminAccount) Kind() PrincipalKind { return KindAdmin }
func (a *AdminAccount) DisplayName() string { return a.Name }
func (a *AdminAccount) sealedPrincipal()    {}
