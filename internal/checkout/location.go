package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

type LocationAPI interface {
	Countries(ctx context.Context) (*api.Response[[]domain.Location], error)
	States(ctx context.Context, countryID string) (*api.Response[[]domain.Location], error)
	Cities(ctx context.Context, stateID string) (*api.Response[[]domain.Location], error)
}

// Selection is the chosen country, state and city. Zero values mean unselected.
type Selection struct {
	Country domain.Location `json:"country"`
	State   domain.Location `json:"state"`
	City    domain.Location `json:"city"`
}

// LocationSelector drives the country -> state -> city cascade. Changing an
// upstream level clears every level below it, options included. Option lists
// fetched for a selection that has since changed are dropped.
type LocationSelector struct {
	api LocationAPI

	mu        sync.Mutex
	countries []domain.Location
	states    []domain.Location
	cities    []domain.Location
	selected  Selection
	// bumped on every country or state change
	generation uint64
}

func NewLocationSelector(locationAPI LocationAPI) *LocationSelector {
	return &LocationSelector{api: locationAPI}
}

func (l *LocationSelector) LoadCountries(ctx context.Context) ([]domain.Location, error) {
	list, err := fetch("countries", func() (*api.Response[[]domain.Location], error) {
		return l.api.Countries(ctx)
	})
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.countries = list
	l.mu.Unlock()
	return list, nil
}

// SelectCountry picks a country, resets state and city, and loads its states.
func (l *LocationSelector) SelectCountry(ctx context.Context, countryID string) ([]domain.Location, error) {
	l.mu.Lock()
	country, ok := find(l.countries, countryID)
	if !ok {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: country %s", ErrUnknownLocation, countryID)
	}
	l.selected = Selection{Country: country}
	l.states, l.cities = nil, nil
	l.generation++
	gen := l.generation
	l.mu.Unlock()

	return l.loadStates(ctx, countryID, gen)
}

// SelectState picks a state, resets the city, and loads its cities.
func (l *LocationSelector) SelectState(ctx context.Context, stateID string) ([]domain.Location, error) {
	l.mu.Lock()
	state, ok := find(l.states, stateID)
	if !ok {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: state %s", ErrUnknownLocation, stateID)
	}
	l.selected.State = state
	l.selected.City = domain.Location{}
	l.cities = nil
	l.generation++
	gen := l.generation
	l.mu.Unlock()

	return l.loadCities(ctx, stateID, gen)
}

func (l *LocationSelector) SelectCity(cityID string) (domain.Location, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	city, ok := find(l.cities, cityID)
	if !ok {
		return domain.Location{}, fmt.Errorf("%w: city %s", ErrUnknownLocation, cityID)
	}
	l.selected.City = city
	return city, nil
}

// Restore selects a full chain at once, as when a saved address is picked.
// Option lists are reloaded for the chain; names come from the address.
func (l *LocationSelector) Restore(ctx context.Context, a domain.Address) error {
	l.mu.Lock()
	l.selected = Selection{
		Country: domain.Location{ID: a.CountryID, Name: a.CountryName},
		State:   domain.Location{ID: a.StateID, Name: a.StateName},
		City:    domain.Location{ID: a.CityID, Name: a.CityName},
	}
	l.states, l.cities = nil, nil
	l.generation++
	gen := l.generation
	l.mu.Unlock()

	if a.CountryID == "" {
		return nil
	}
	if _, err := l.loadStates(ctx, a.CountryID, gen); err != nil {
		return err
	}
	if a.StateID == "" {
		return nil
	}
	_, err := l.loadCities(ctx, a.StateID, gen)
	return err
}

func (l *LocationSelector) Selection() Selection {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selected
}

func (l *LocationSelector) Options() (countries, states, cities []domain.Location) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.countries, l.states, l.cities
}

func (l *LocationSelector) loadStates(ctx context.Context, countryID string, gen uint64) ([]domain.Location, error) {
	list, err := fetch("states", func() (*api.Response[[]domain.Location], error) {
		return l.api.States(ctx, countryID)
	})
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.generation != gen {
		return nil, nil
	}
	l.states = list
	return list, nil
}

func (l *LocationSelector) loadCities(ctx context.Context, stateID string, gen uint64) ([]domain.Location, error) {
	list, err := fetch("cities", func() (*api.Response[[]domain.Location], error) {
		return l.api.Cities(ctx, stateID)
	})
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.generation != gen {
		return nil, nil
	}
	l.cities = list
	return list, nil
}

func fetch(what string, get func() (*api.Response[[]domain.Location], error)) ([]domain.Location, error) {
	resp, err := get()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", what, err)
	}
	if err := api.Rejection(resp.Envelope); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func find(list []domain.Location, id string) (domain.Location, bool) {
	for _, loc := range list {
		if loc.ID == id {
			return loc, true
		}
	}
	return domain.Location{}, false
}
