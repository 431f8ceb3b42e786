// Package binding parses short-hand container bindings and resolves them
// into a runtime configuration.
//
// Grammar:
//
//	port    [HOSTPORT[+]:]CONTAINERPORT[/tcp|/udp]
//	volume  HOSTPATH:CONTAINERPATH[:ro|:rw]
//	link    TARGETNAME:ALIAS
//	env     KEY=VALUE
//
// A host port ending in "+" is a dynamic binding: the number is a base and
// the first free port from base plus the scenario counter is used.
//
// Example usage:
//
//	resolver := binding.NewResolver(ports.NewAllocator(), &counter)
//	cfg, err := resolver.Resolve(binding.Request{
//	    Ports:   []string{"8080+:80", "53:53/udp", "9000"},
//	    Volumes: []string{"/data:/var/data:ro"},
//	    Links:   []string{"web:webalias"},
//	})
//	if err != nil {
//	    return err
//	}
//
//	containerConfig := cfg.ContainerConfig("nginx:alpine", nil)
//	hostConfig := cfg.HostConfig()
//
// Resolve is all-or-nothing: a malformed spec or an exhausted port search
// returns an error and no config.
package binding
