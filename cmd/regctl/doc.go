// Package main is regctl, the command-line client for the code registry.
//
//	regctl inspect releases/framework/bundle.yaml
//	regctl publish releases/framework/bundle.yaml --server http://localhost:8000
//	regctl get 0x1 MoveStdlib
package main
