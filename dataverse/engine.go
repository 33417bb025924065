package dataverse

// The paging engine. A retrieval is either single-shot (the caller supplied a
// top attribute, so the server caps the result itself) or paged. The choice is
// made once, up front, and both public operations run through the same loop so
// they always agree on how many pages exist and how many records each holds.

import "context"

// forEachPage drives the query through the paging protocol, invoking visit
// once per decoded page. Any error from mutation, transport, decoding or the
// visitor aborts the whole retrieval.
func (c *ServiceClient) forEachPage(ctx context.Context, entitySet, fetchxml string, visit func(*fetchPage) error) error {
	hasTop, err := fetchTagHasAttr(fetchxml, "top")
	if err != nil {
		return err
	}
	query, err := ensureAggregatePageSize(fetchxml, aggregatePageSize)
	if err != nil {
		return err
	}

	if hasTop {
		// An explicit row cap disables paging: exactly one request, query
		// passed through verbatim apart from aggregate-cap normalization.
		page, err := c.fetchSinglePage(ctx, entitySet, query)
		if err != nil {
			return err
		}
		return visit(page)
	}

	pageNumber := 1
	cookie := ""
	for {
		// A cancelled context stops the loop before the next request goes out.
		if err := ctx.Err(); err != nil {
			return err
		}

		paged, err := applyPaging(query, pageNumber, cookie)
		if err != nil {
			return err
		}
		c.logger.Debug("fetching page", "entity_set", entitySet, "page", pageNumber)

		page, err := c.fetchSinglePage(ctx, entitySet, paged)
		if err != nil {
			return err
		}
		if err := visit(page); err != nil {
			return err
		}

		if !page.more {
			return nil
		}
		if !page.hasCookie {
			return ErrMissingPagingCookie
		}
		cookie = page.cookie
		pageNumber++
	}
}

// RetrieveMultiple runs the FetchXML query against the entity set and returns
// every matching row, paging through the result set as needed. Each row gets
// the synthetic RowNumberAttribute, 1-based and increasing across pages.
//
// On any error no rows are returned, partial pages included.
func (c *ServiceClient) RetrieveMultiple(ctx context.Context, entitySet, fetchxml string) ([]Entity, error) {
	var entities []Entity
	err := c.forEachPage(ctx, entitySet, fetchxml, func(page *fetchPage) error {
		rows, err := decodeEntities(page.records)
		if err != nil {
			return err
		}
		base := len(entities)
		for i := range rows {
			rows[i][RowNumberAttribute] = IntValue(int64(base+i) + 1)
		}
		entities = append(entities, rows...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entities, nil
}

// RetrieveMultipleCount counts the rows the query matches without
// materializing them. It pages exactly like RetrieveMultiple, so for the same
// server state the count equals len(RetrieveMultiple(...)).
func (c *ServiceClient) RetrieveMultipleCount(ctx context.Context, entitySet, fetchxml string) (int, error) {
	total := 0
	err := c.forEachPage(ctx, entitySet, fetchxml, func(page *fetchPage) error {
		total += len(page.records)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
