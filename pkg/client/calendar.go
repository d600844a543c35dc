package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"slotboard/pkg/model"
)

// CalendarClient is a typed client for the calendar service API. Read
// endpoints are safe to poll; the service pushes nothing to clients.
type CalendarClient struct {
	httpClient *HttpClient
}

func NewCalendarClient(baseURL string) *CalendarClient {
	return &CalendarClient{
		httpClient: NewHttpClient(baseURL),
	}
}

// UseToken sets the bearer token used on authenticated endpoints.
func (c *CalendarClient) UseToken(token string) {
	c.httpClient.SetBearerToken(token)
}

func (c *CalendarClient) WaitForHealthy(maxWait time.Duration) error {
	return c.httpClient.WaitForHealthy(maxWait)
}

func (c *CalendarClient) Register(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/auth/register", body)
}

func (c *CalendarClient) Login(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/auth/login", body)
}

func (c *CalendarClient) Me() (*Response, error) {
	return c.httpClient.GET("/api/v1/users/me")
}

func (c *CalendarClient) UpdateTimezone(body any) (*Response, error) {
	return c.httpClient.PUT("/api/v1/users/me/timezone", body)
}

func (c *CalendarClient) ListUsers() (*Response, error) {
	return c.httpClient.GET("/api/v1/users")
}

func (c *CalendarClient) Timezones() (*Response, error) {
	return c.httpClient.GET("/api/v1/timezones")
}

func (c *CalendarClient) CreateBooking(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/bookings", body)
}

// CreateBookingIdempotent creates a booking under an idempotency key, so a
// retried request replays the first response instead of double-booking.
func (c *CalendarClient) CreateBookingIdempotent(body any, key string) (*Response, error) {
	return c.httpClient.POSTWithHeaders("/api/v1/bookings", body, map[string]string{
		"Idempotency-Key": key,
	})
}

func (c *CalendarClient) ListBookings() (*Response, error) {
	return c.httpClient.GET("/api/v1/bookings")
}

func (c *CalendarClient) DeleteBooking(id string) (*Response, error) {
	return c.httpClient.DELETE("/api/v1/bookings/id/" + url.PathEscape(id))
}

func (c *CalendarClient) ListConflicts() (*Response, error) {
	return c.httpClient.GET("/api/v1/conflicts")
}

func (c *CalendarClient) ResolveConflict(id string) (*Response, error) {
	return c.httpClient.PUT("/api/v1/conflicts/id/"+url.PathEscape(id)+"/resolve", nil)
}

func (c *CalendarClient) DecodeAuth(resp *Response) (*model.AuthResponse, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode auth wrapper:\n%s\n%s", resp.ToString(), err)
	}

	var auth model.AuthResponse
	if err := json.Unmarshal(wrapper.Data, &auth); err != nil {
		return nil, fmt.Errorf("could not decode auth json:\n%s\n%s", resp.ToString(), err)
	}

	return &auth, nil
}

func (c *CalendarClient) DecodeUser(resp *Response) (*model.User, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode user wrapper:\n%s\n%s", resp.ToString(), err)
	}

	var user model.User
	if err := json.Unmarshal(wrapper.Data, &user); err != nil {
		return nil, fmt.Errorf("could not decode user json:\n%s\n%s", resp.ToString(), err)
	}

	return &user, nil
}

func (c *CalendarClient) DecodeBooking(resp *Response) (*model.Booking, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode booking wrapper:\n%s\n%s", resp.ToString(), err)
	}

	var booking model.Booking
	if err := json.Unmarshal(wrapper.Data, &booking); err != nil {
		return nil, fmt.Errorf("could not decode booking json:\n%s\n%s", resp.ToString(), err)
	}

	return &booking, nil
}

func (c *CalendarClient) DecodeBookings(resp *Response) ([]*model.Booking, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode booking list wrapper:\n%s\n%s", resp.ToString(), err)
	}

	var bookings []*model.Booking
	if err := json.Unmarshal(wrapper.Data, &bookings); err != nil {
		return nil, fmt.Errorf("could not decode booking list:\n%s\n%s", resp.ToString(), err)
	}

	return bookings, nil
}

func (c *CalendarClient) DecodeConflicts(resp *Response) ([]*model.Conflict, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode conflict list wrapper:\n%s\n%s", resp.ToString(), err)
	}

	var conflicts []*model.Conflict
	if err := json.Unmarshal(wrapper.Data, &conflicts); err != nil {
		return nil, fmt.Errorf("could not decode conflict list:\n%s\n%s", resp.ToString(), err)
	}

	return conflicts, nil
}
