// Package watch follows a project folder for changes.
//
// A change to a config file in the project root reloads the configuration
// from scratch, with a default schema dependency but no default endpoint,
// and emits EventConfigChanged. A file created or removed anywhere in the
// tree emits EventDocumentsChanged when it falls into a document set of the
// configuration in effect. Directories created after Run starts are picked
// up; node_modules, .git and other hidden directories are not watched.
//
//	w, err := watch.New(dir, watch.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	go func() { _ = w.Run(ctx) }()
//	for ev := range w.Events() {
//	    ...
//	}
package watch
