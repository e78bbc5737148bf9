// Package domain holds the searchlift data model: metric rows, page and
// summary recommendations, stage reports and the settings that drive them.
//
// Nothing here does I/O. The package imports only the standard library and
// every other package may import it.
package domain
