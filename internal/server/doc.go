// Package server hosts the Fiber HTTP service, request middleware chain, and
// mount registry glue that wires URL-prefix resolution into asset handlers.
// The single binary bootstraps Fiber here, attaches logging and recover
// middlewares, injects the MountRegistry built from config, and exposes
// router constructors that other packages (main, serve) can reuse. Future
// phases may extend this package with TLS or admin surfaces, so keep exports
// narrow and accept explicit dependencies.
package server
