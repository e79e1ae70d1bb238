// Package serve implements the asset request handler: method and path
// validation, fingerprint/ETag checks, conditional-GET evaluation, cache
// header derivation, and the translation of compile failures into in-band
// diagnostic payloads for scripts and stylesheets. The handler is stateless;
// it closes over per-mount resolvers and a logger, and plugs into the Fiber
// router through the server.AssetHandler contract.
package serve
