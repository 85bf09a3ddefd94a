// Package httpservices provides pipeline services for HTTP requests and response handling.
//
// Use Get or Fetch to perform a GET request, ParseJSON to unmarshal the response body,
// and Expect to verify the parsed result and error if not as expected. ExtractText and
// StripHTML reduce an HTML body to plain text.
//
// Example: GET url → ParseJSON → Expect(predicate)
//
//	p := pipeline.New(pipeline.NewShared(struct{}{}), []pipeline.Service[struct{}]{
//	    httpservices.Get[struct{}](nil, "https://api.example.com/status"),
//	    httpservices.ParseJSON[struct{}](),
//	    httpservices.Expect[struct{}](func(v any) error {
//	        m, _ := v.(map[string]any)
//	        if m["status"] != "ok" { return fmt.Errorf("unexpected status") }
//	        return nil
//	    }),
//	}, pipeline.WithName("check-api"))
package httpservices
