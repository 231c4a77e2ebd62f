// Package spec holds the application-wide OpenAPI configuration for oasgate.
//
// A Registry is built once at startup: register the spec document (a single
// file or a directory of files), optionally register named string-format
// validators and the explorer page, then mount the serving routes on a chi
// router. After startup the Registry is read-only; request-time code only
// reads from it.
//
//	reg := spec.New(spec.WithSettings(spec.SettingsFromEnv()))
//	if err := reg.RegisterSpec("openapi.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	if err := reg.AddExplorer(); err != nil {
//	    log.Fatal(err)
//	}
//	r := chi.NewRouter()
//	reg.Mount(r)
//
// Registering a spec twice is a configuration error, as is registering the
// explorer or mounting routes without a spec.
package spec
