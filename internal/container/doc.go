// Package container runs scenario containers on the Docker engine.
//
// The package provides three main components:
//
// 1. Docker Client Wrapper (docker.go)
//    - Image presence checks and pulls
//    - Named volume operations
//    - Container discovery by label
//
// 2. Container Lifecycle (lifecycle.go)
//    - Create from a resolved binding.RuntimeConfig, start, stop, remove
//    - Running state checks and uptime
//
// 3. Log Delivery (logs.go)
//    - Follows a container's output and feeds it to a logstream.Handler
//    - Demultiplexes stdout/stderr frames with stdcopy
//    - TTY containers deliver raw frames
//
// Basic usage:
//
//	client, err := container.NewClient(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	id, err := client.Create(ctx, container.CreateRequest{
//	    Name:   "tb-1a2b3c4d-web",
//	    Image:  "nginx:alpine",
//	    Config: cfg,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.Start(ctx, id); err != nil {
//	    log.Fatal(err)
//	}
//
//	stream := logstream.New(logstream.WithName("web"))
//	err = client.FollowLogs(ctx, id, stream, container.LogOptions{})
package container
