package ratelimit

// MatchEndpoint returns the configuration for an exact path and method match,
// or nil when the request falls under the default limit. An entry with an
// empty Method matches every method on its path.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	var anyMethod *EndpointConfig
	for i := range configs {
		config := &configs[i]
		if config.Path != path {
			continue
		}
		if config.Method == method {
			return config
		}
		if config.Method == "" && anyMethod == nil {
			anyMethod = config
		}
	}
	return anyMethod
}
