package postgres

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Guests *GuestRepository
}

// NewRepositories wires all repositories backed by the provided executor, normally a *pgxpool.Pool.
func NewRepositories(exec pgExecutor) *Repositories {
	return &Repositories{
		Guests: NewGuestRepository(exec),
	}
}
