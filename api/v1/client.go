package v1

type Client struct {
	Transport *Transport
	Time      *TimeEndpoint
	Punches   *PunchEndpoint
	Profiles  *ProfileEndpoint
}

// NewClient initializes the backend API client for one bearer token.
func NewClient(baseURL string, token string) *Client {
	t := NewTransport(baseURL, token)
	return &Client{
		Transport: t,
		Time:      &TimeEndpoint{transport: t},
		Punches:   &PunchEndpoint{transport: t},
		Profiles:  &ProfileEndpoint{transport: t},
	}
}
