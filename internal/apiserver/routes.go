package apiserver

// registerRoutes wires every API endpoint to its handler.
func (s *Server) registerRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods("GET")

	api := s.router.PathPrefix("/api/v1alpha1").Subrouter()

	// Resource CRUD, one route set per kind. Project scoping comes from
	// the ?project= query parameter, defaulting to "default".
	for _, res := range resourceDescriptors() {
		res := res
		api.HandleFunc("/"+res.path, s.handleList(res)).Methods("GET")
		api.HandleFunc("/"+res.path, s.handleCreate(res)).Methods("POST")
		api.HandleFunc("/"+res.path+"/{name}", s.handleGet(res)).Methods("GET")
		api.HandleFunc("/"+res.path+"/{name}", s.handleUpdate(res)).Methods("PUT")
		api.HandleFunc("/"+res.path+"/{name}", s.handleDelete(res)).Methods("DELETE")
	}

	// Manifest apply: create-or-update by kind.
	api.HandleFunc("/apply", s.handleApply).Methods("POST")

	// Grounded document query.
	api.HandleFunc("/query", s.handleQuery).Methods("GET")

	// Server-side chat turn inside a thread.
	api.HandleFunc("/threads/{name}/messages", s.handlePostMessage).Methods("POST")
}
