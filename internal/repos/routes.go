package repos

import (
	"encoding/json"
	"sort"

	"fleetsmart/internal/models"
	"fleetsmart/internal/store"
)

type RouteRepo struct {
	store store.TreeStore
}

func NewRouteRepo(s store.TreeStore) *RouteRepo {
	return &RouteRepo{store: s}
}

func (r *RouteRepo) Create(route *models.Route) (string, error) {
	if route.FinalDestination == "" {
		if last, ok := route.LastStop(); ok {
			route.FinalDestination = last.Address
		}
	}
	id, err := r.store.Insert(ColRoutes, route)
	if err != nil {
		return "", err
	}
	route.ID = id
	return id, nil
}

func (r *RouteRepo) Get(id string) (*models.Route, error) {
	raw, err := r.store.GetOne(ColRoutes, id)
	if err != nil {
		return nil, err
	}
	var route models.Route
	if err := json.Unmarshal(raw, &route); err != nil {
		return nil, err
	}
	route.ID = id
	return &route, nil
}

func (r *RouteRepo) All() ([]models.Route, error) {
	raws, err := r.store.GetAll(ColRoutes)
	if err != nil {
		return nil, err
	}
	routes := make([]models.Route, 0, len(raws))
	for id, raw := range raws {
		var route models.Route
		if err := json.Unmarshal(raw, &route); err != nil {
			return nil, err
		}
		route.ID = id
		routes = append(routes, route)
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].ID < routes[j].ID })
	return routes, nil
}

func (r *RouteRepo) Update(route *models.Route) error {
	return r.store.Update(ColRoutes, route.ID, route)
}

func (r *RouteRepo) Delete(id string) error {
	return r.store.Remove(ColRoutes, id)
}
