/*
Package resolver maps human-supplied locations onto concrete workspace positions.

TargetResolver turns a page name into a page ID: an exact case-insensitive
title wins outright, otherwise candidates are scored by Similarity and the best
one above the threshold is returned.

BuildStructure linearizes a page's children into a domain.DocumentStructure and
partitions it into heading-delimited sections. SectionResolver.Find locates a
section by name and InsertionPoint turns a placement ("in" or "below") into the
parent and sibling IDs an append needs.
*/
package resolver
