// Package eia is a thin client for the U.S. Energy Information Administration
// statistics API (v2). It exists so the API key stays on the server: the HTTP
// layer parses the browser's query with ParseQuery, the Client rebuilds the
// upstream URL with the key attached and passes the JSON body through
// untouched.
package eia
