// Package romlib indexes a ROM directory and materializes archived
// images. Listing walks the directory concurrently; archives (zip, 7z,
// gzip, rar) are sniffed by content and the first .gb/.gbc entry is
// extracted into a content-addressed cache under the system temp dir.
package romlib
