// Package ui renders analysis progress in the terminal.
package ui
