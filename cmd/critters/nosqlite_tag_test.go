//go:build !sqlite

package main

const sqliteBuild = false
