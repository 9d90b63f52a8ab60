package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/lagos-gis/streetguide/pkg/datastructure"
	"github.com/lagos-gis/streetguide/pkg/server"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/paulmach/orb/geojson"
)

type RoutingService interface {
	Route(ctx context.Context, origin, destination datastructure.Coordinate) (datastructure.RouteResult, error)
	NearestFacility(ctx context.Context, origin datastructure.Coordinate, category string) (datastructure.RouteResult, error)
}

type GISService interface {
	FeaturesByCategory(ctx context.Context, category string) (json.RawMessage, error)
	Buffer(ctx context.Context, c datastructure.Coordinate, distanceMeters float64) (json.RawMessage, error)
	LCDAs(ctx context.Context) (json.RawMessage, error)
	RoadsLayer(ctx context.Context) (json.RawMessage, error)
	Boundary(ctx context.Context) (json.RawMessage, error)
	Identify(ctx context.Context, c datastructure.Coordinate) (json.RawMessage, error)
	Search(ctx context.Context, query string) ([]datastructure.SearchResult, error)
	Stats(ctx context.Context) (*datastructure.DatasetStats, error)
	LCDAStats(ctx context.Context, lcdaName string) (*datastructure.LCDAStats, error)
}

type StreetGuideHandler struct {
	routing RoutingService
	gis     GISService
}

// StreetGuideRouter mounts every API endpoint on the router.
func StreetGuideRouter(r *chi.Mux, routing RoutingService, gis GISService) {
	handler := &StreetGuideHandler{routing: routing, gis: gis}

	r.Group(func(r chi.Router) {
		r.Route("/api", func(r chi.Router) {
			r.Get("/features/{category}", handler.FeaturesByCategory)
			r.Post("/route", handler.Route)
			r.Post("/nearest", handler.Nearest)
			r.Post("/buffer", handler.Buffer)
			r.Get("/lcdas", handler.LCDAs)
			r.Get("/roads_layer", handler.RoadsLayer)
			r.Get("/boundary", handler.Boundary)
			r.Get("/search", handler.Search)
			r.Post("/identify", handler.Identify)
			r.Get("/stats", handler.Stats)
			r.Get("/stats/{lcda}", handler.LCDAStats)
		})
	})
}

// RouteRequest is the request body for point-to-point routing.
type RouteRequest struct {
	StartLat float64 `json:"start_lat" validate:"required,lt=90,gt=-90"`
	StartLng float64 `json:"start_lng" validate:"required,lt=180,gt=-180"`
	EndLat   float64 `json:"end_lat" validate:"required,lt=90,gt=-90"`
	EndLng   float64 `json:"end_lng" validate:"required,lt=180,gt=-180"`
}

func (s *RouteRequest) Bind(r *http.Request) error {
	return nil
}

func (h *StreetGuideHandler) Route(w http.ResponseWriter, r *http.Request) {
	data := &RouteRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !validateStruct(w, r, data) {
		return
	}

	origin := datastructure.NewCoordinate(data.StartLat, data.StartLng)
	destination := datastructure.NewCoordinate(data.EndLat, data.EndLng)
	result, err := h.routing.Route(r.Context(), origin, destination)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, renderRouteCollection(result))
}

// NearestRequest is the request body for nearest-facility routing.
type NearestRequest struct {
	Lat      float64 `json:"lat" validate:"required,lt=90,gt=-90"`
	Lng      float64 `json:"lng" validate:"required,lt=180,gt=-180"`
	Category string  `json:"category" validate:"required"`
}

func (s *NearestRequest) Bind(r *http.Request) error {
	if s.Category == "" {
		return errors.New("invalid request")
	}
	return nil
}

func (h *StreetGuideHandler) Nearest(w http.ResponseWriter, r *http.Request) {
	data := &NearestRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !validateStruct(w, r, data) {
		return
	}

	origin := datastructure.NewCoordinate(data.Lat, data.Lng)
	result, err := h.routing.NearestFacility(r.Context(), origin, data.Category)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, renderNearestCollection(origin, result))
}

// BufferRequest is the request body for proximity (buffer) analysis.
type BufferRequest struct {
	Lat      float64 `json:"lat" validate:"required,lt=90,gt=-90"`
	Lng      float64 `json:"lng" validate:"required,lt=180,gt=-180"`
	Distance float64 `json:"distance" validate:"required,gt=0"`
}

func (s *BufferRequest) Bind(r *http.Request) error {
	return nil
}

func (h *StreetGuideHandler) Buffer(w http.ResponseWriter, r *http.Request) {
	data := &BufferRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !validateStruct(w, r, data) {
		return
	}

	fc, err := h.gis.Buffer(r.Context(), datastructure.NewCoordinate(data.Lat, data.Lng), data.Distance)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	renderRawJSON(w, fc)
}

// IdentifyRequest is the request body for spatial identify.
type IdentifyRequest struct {
	Lat float64 `json:"lat" validate:"required,lt=90,gt=-90"`
	Lng float64 `json:"lng" validate:"required,lt=180,gt=-180"`
}

func (s *IdentifyRequest) Bind(r *http.Request) error {
	return nil
}

func (h *StreetGuideHandler) Identify(w http.ResponseWriter, r *http.Request) {
	data := &IdentifyRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !validateStruct(w, r, data) {
		return
	}

	fc, err := h.gis.Identify(r.Context(), datastructure.NewCoordinate(data.Lat, data.Lng))
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	renderRawJSON(w, fc)
}

func (h *StreetGuideHandler) FeaturesByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	fc, err := h.gis.FeaturesByCategory(r.Context(), category)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	renderRawJSON(w, fc)
}

func (h *StreetGuideHandler) LCDAs(w http.ResponseWriter, r *http.Request) {
	fc, err := h.gis.LCDAs(r.Context())
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	renderRawJSON(w, fc)
}

func (h *StreetGuideHandler) RoadsLayer(w http.ResponseWriter, r *http.Request) {
	fc, err := h.gis.RoadsLayer(r.Context())
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	renderRawJSON(w, fc)
}

func (h *StreetGuideHandler) Boundary(w http.ResponseWriter, r *http.Request) {
	fc, err := h.gis.Boundary(r.Context())
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	renderRawJSON(w, fc)
}

func (h *StreetGuideHandler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.gis.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, results)
}

func (h *StreetGuideHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.gis.Stats(r.Context())
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, stats)
}

func (h *StreetGuideHandler) LCDAStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.gis.LCDAStats(r.Context(), chi.URLParam(r, "lcda"))
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, stats)
}

// renderRouteCollection reshapes a point-to-point route into a GeoJSON
// FeatureCollection, one feature per traversed road segment. A no-path
// result renders as an empty collection; callers read the mode from the
// collection-level property.
func renderRouteCollection(result datastructure.RouteResult) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.ExtraMembers = map[string]interface{}{
		"mode": string(result.Mode),
	}
	if result.Mode != datastructure.ModeNetwork {
		return fc
	}
	fc.ExtraMembers["polyline"] = result.Polyline
	fc.ExtraMembers["total_cost"] = result.Distance
	for _, edge := range result.Edges {
		feature := geojson.NewFeature(edge.Geometry)
		feature.Properties = geojson.Properties{
			"id":   edge.ID,
			"name": edge.Name,
		}
		fc.Append(feature)
	}
	return fc
}

// renderNearestCollection reshapes a nearest-facility result: the
// target point plus either the road path or the dashed straight-line
// fallback, each tagged with the producing mode.
func renderNearestCollection(origin datastructure.Coordinate, result datastructure.RouteResult) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.ExtraMembers = map[string]interface{}{
		"mode": string(result.Mode),
	}
	if result.Mode == datastructure.ModeEmpty || result.Facility == nil {
		return fc
	}

	target := geojson.NewFeature(result.Facility.Location.Point())
	target.Properties = geojson.Properties{
		"name":      result.Facility.Name,
		"category":  result.Facility.Category,
		"is_target": true,
	}
	fc.Append(target)

	route := geojson.NewFeature(result.Geometry)
	route.Properties = geojson.Properties{
		"type":         "route",
		"mode":         string(result.Mode),
		"distance_msg": result.Message,
	}
	if result.Mode == datastructure.ModeStraightLine {
		route.Properties["style"] = "dashed"
	}
	fc.Append(route)
	return fc
}

func renderRawJSON(w http.ResponseWriter, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

func renderServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *server.Error
	if errors.As(err, &svcErr) {
		switch svcErr.Code() {
		case server.ErrBadRequest:
			render.Render(w, r, ErrInvalidRequest(err))
			return
		case server.ErrNotFound:
			render.Render(w, r, ErrNotFoundRend(err))
			return
		}
	}
	render.Render(w, r, ErrInternalServerErrorRend(errors.New("internal server error")))
}

func validateStruct(w http.ResponseWriter, r *http.Request, data interface{}) bool {
	validate := validator.New()
	if err := validate.Struct(data); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		render.Render(w, r, ErrValidation(err, vv))
		return false
	}
	return true
}

// ErrResponse is the error envelope for every endpoint.
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText    string   `json:"status"`          // user-level status message
	AppCode       int64    `json:"code,omitempty"`  // application-specific error code
	ErrorText     string   `json:"error,omitempty"` // application-level error message, for debugging
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrNotFoundRend(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusNotFound,
		StatusText:     "Resource not found.",
		ErrorText:      err.Error(),
	}
}

func ErrInternalServerErrorRend(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		StatusText:     "Internal server error.",
		ErrorText:      err.Error(),
	}
}

func ErrValidation(err error, errV []error) render.Renderer {
	vv := []string{}
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  vv,
	}
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	validatorErrs := err.(validator.ValidationErrors)
	for _, e := range validatorErrs {
		translatedErr := fmt.Errorf("%s", e.Translate(trans))
		errs = append(errs, translatedErr)
	}
	return errs
}
