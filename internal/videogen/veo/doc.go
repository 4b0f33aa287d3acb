// Package veo adapts Google's Veo long-running video generation API to the
// videogen.Backend contract. Submit starts an operation and returns its name
// as the handle; Poll refreshes the operation; Fetch downloads the finished
// clip through the Files API unless the bytes were returned inline.
package veo
