package sync

// Resolver produces the canonical tenant id for a screen. An authenticated
// session's tenant id wins outright; only public routes resolve through the
// URL slug. Resolution is a pure lookup against the platform mirror.
type Resolver struct {
	Platform *PlatformContext
}

// Resolve returns the tenant id for the given session/slug pair.
//
// Errors: ErrNotLoaded when the restaurant mirror has not delivered yet
// (pending, not a miss); ErrNotFound when the slug definitively matches no
// restaurant.
func (r *Resolver) Resolve(sessionTenantID, slug string) (string, error) {
	if sessionTenantID != "" {
		return sessionTenantID, nil
	}
	if slug == "" {
		return "", ErrNotFound
	}
	restaurant, err := r.Platform.RestaurantBySlug(slug)
	if err != nil {
		return "", err
	}
	return restaurant.ID, nil
}
