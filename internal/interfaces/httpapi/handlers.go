package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gsanchezm/OmniPizza/internal/domain"
	"github.com/gsanchezm/OmniPizza/pkg/api"
	"github.com/labstack/echo/v4"
)

// HeaderCountryCode selects the market of a catalog request.
const HeaderCountryCode = "X-Country-Code"

func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return &domain.Error{
			Kind:    domain.KindInvalidFieldFormat,
			Field:   "body",
			Message: "request body is not valid JSON for this endpoint",
			Err:     err,
		}
	}
	return nil
}

func (s *Server) root(c echo.Context) error {
	return c.JSON(http.StatusOK, api.ServiceInfo{Message: AppName, Version: AppVersion, Health: "/health"})
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, api.HealthResponse{
		Status:      "healthy",
		Timestamp:   s.now(),
		Environment: s.opts.Environment,
	})
}

// --- auth ---

func (s *Server) login(c echo.Context) error {
	var req api.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return domain.FieldError(domain.KindMissingRequiredField, "username", "Field 'username' is required")
	}
	if req.Password == "" {
		return domain.FieldError(domain.KindMissingRequiredField, "password", "Field 'password' is required")
	}

	res, err := s.svc.Auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, api.LoginResponse{
		AccessToken: res.Token,
		TokenType:   "bearer",
		Username:    res.Identity.Username,
		Behavior:    string(res.Identity.Behavior),
		ExpiresAt:   res.ExpiresAt,
	})
}

func (s *Server) users(c echo.Context) error {
	ids := s.svc.Auth.Users()
	out := make([]api.UserProfile, len(ids))
	for i, id := range ids {
		out[i] = toUserProfile(id)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) profile(c echo.Context) error {
	id, err := s.svc.Auth.Profile(sessionFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserProfile(id))
}

// --- countries ---

func (s *Server) countries(c echo.Context) error {
	profiles := s.svc.Countries.List()
	out := make([]api.CountryInfo, len(profiles))
	for i, p := range profiles {
		out[i] = toCountryInfo(p)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) country(c echo.Context) error {
	code := c.Param("code")
	p, err := s.svc.Countries.Resolve(code)
	if err != nil {
		return domain.Errorf(domain.KindNotFound, "Country %s not found", code)
	}
	return c.JSON(http.StatusOK, toCountryInfo(p))
}

// --- catalog ---

func (s *Server) pizzas(c echo.Context) error {
	country := c.Request().Header.Get(HeaderCountryCode)
	if country == "" {
		country = c.QueryParam("country_code")
	}
	if strings.TrimSpace(country) == "" {
		return domain.FieldError(domain.KindMissingRequiredField, HeaderCountryCode,
			"X-Country-Code header is required. Valid values: "+s.validCountries())
	}
	lang := c.QueryParam("lang")
	if lang == "" {
		lang = c.Request().Header.Get("Accept-Language")
	}

	sess := sessionFrom(c)
	cat, err := s.svc.Catalog.Assemble(c.Request().Context(), sess.Behavior, country, lang)
	if err != nil {
		return err
	}

	resp := api.PizzaResponse{
		Pizzas:      make([]api.Pizza, len(cat.Entries)),
		CountryCode: string(cat.Country.Code),
		Currency:    cat.Country.Currency,
	}
	for i, e := range cat.Entries {
		resp.Pizzas[i] = toPizza(e, cat.Country.DecimalPlaces)
	}
	if len(cat.Entries) > 0 {
		resp.Language = cat.Entries[0].Language
	}
	return c.JSON(http.StatusOK, resp)
}

// --- cart and checkout ---

func (s *Server) quote(c echo.Context) error {
	var req api.QuoteRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	totals, country, err := s.svc.Checkout.Quote(c.Request().Context(), sessionFrom(c), domain.QuoteRequest{
		Country: req.CountryCode,
		Items:   fromCartItems(req.Items),
		Tip:     req.Tip,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toQuoteResponse(totals, country))
}

func (s *Server) checkout(c echo.Context) error {
	var req api.CheckoutRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	order, err := s.svc.Checkout.Checkout(c.Request().Context(), sessionFrom(c), fromCheckoutRequest(req))
	if err != nil {
		return err
	}
	s.metrics.OrdersCreated.WithLabelValues(string(order.Country)).Inc()
	return c.JSON(http.StatusOK, toOrderSummary(order, s.places(order.Country)))
}

// --- orders ---

func (s *Server) orders(c echo.Context) error {
	list, err := s.svc.Orders.List(c.Request().Context(), sessionFrom(c))
	if err != nil {
		return err
	}
	resp := api.OrdersResponse{Orders: make([]api.Order, len(list))}
	for i, o := range list {
		resp.Orders[i] = toOrder(o, s.places(o.Country))
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) order(c echo.Context) error {
	o, err := s.svc.Orders.Get(c.Request().Context(), sessionFrom(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrder(o, s.places(o.Country)))
}

// --- debug ---

// latencySpike waits a random 0.5s to 5s on the calling request only.
func (s *Server) latencySpike(c echo.Context) error {
	sample := 0.5
	if s.opts.Random != nil {
		sample = s.opts.Random.Float64()
	}
	delay := time.Duration((0.5 + 4.5*sample) * float64(time.Second)).Round(10 * time.Millisecond)
	if s.opts.Sleeper != nil {
		if err := s.opts.Sleeper.Sleep(c.Request().Context(), delay); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, api.LatencySpike{
		Message:      "Latency spike completed",
		DelaySeconds: delay.Seconds(),
		Timestamp:    s.now(),
	})
}

func (s *Server) debugInfo(c echo.Context) error {
	total, err := s.svc.Orders.Count(c.Request().Context())
	if err != nil {
		return err
	}
	users := s.svc.Auth.Users()
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Username
	}
	codes := s.svc.Countries.Codes()
	countries := make([]string, len(codes))
	for i, code := range codes {
		countries[i] = string(code)
	}
	return c.JSON(http.StatusOK, api.DebugInfo{
		AppName:            AppName,
		Version:            AppVersion,
		Environment:        s.opts.Environment,
		TotalOrders:        total,
		TestUsers:          names,
		SupportedCountries: countries,
		Timestamp:          s.now(),
	})
}

func (s *Server) places(code domain.CountryCode) int32 {
	if p, err := s.svc.Countries.Resolve(string(code)); err == nil {
		return p.DecimalPlaces
	}
	return domain.DefaultDecimalPlaces
}

func (s *Server) validCountries() string {
	codes := s.svc.Countries.Codes()
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}
