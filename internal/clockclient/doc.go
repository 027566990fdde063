// Package clockclient talks to a running clock over its web interface.
//
// The clock serves one connection at a time and closes it after every
// reply, so the client never reuses connections. Requests that fail for
// transient reasons (timeouts, refused connections while another client is
// being served, 5xx replies) are retried with exponential backoff.
//
// # Usage Example
//
//	c := clockclient.New("192.168.1.50", 80)
//	status, err := c.Status(ctx)
//	if err != nil {
//	    fmt.Println(clockclient.GetShortErrorMessage(err))
//	    return
//	}
//	fmt.Printf("brightness %d\n", status.Brightness)
//
//	err = c.UpdateConfig(ctx, clockclient.ConfigUpdate{Timezone: "Europe/London"})
//
// Pages are HTML meant for a browser; Status and Config pick the values out
// of them.
package clockclient
