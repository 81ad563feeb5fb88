// Package config provides configuration parsing for folio.
//
// Configuration lives in folio.json (or folio.yaml) next to where the folio
// binary runs. This package handles loading, saving, defaulting and
// validating it.
//
// # Configuration File Structure
//
//	{
//	  "toggle": {
//	    "interval": "1s",
//	    "baseURL": "http://localhost:8080/api/portfolio",
//	    "beaconTimeout": "2s"
//	  },
//	  "editor": {
//	    "imageTags": ["img"],
//	    "refAttr": "data-ref",
//	    "recordedAttr": "data-recorded",
//	    "fieldName": "images",
//	    "maxAttachments": 50
//	  },
//	  "server": {
//	    "host": "localhost",
//	    "port": 8080,
//	    "db": "folio.db",
//	    "uploadDir": "uploads"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  }
//	}
//
// The YAML form uses the same keys.
package config
