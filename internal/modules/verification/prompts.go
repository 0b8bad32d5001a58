package verification

// extractionPrompt instructs the interpreter to pull structured vehicle
// attributes out of the four angle photographs. The year is requested as a
// range because a model can rarely pin a single manufacturing year from
// exterior photos alone.
const extractionPrompt = `You are an expert in vehicle detail extraction.
Analyze the attached images of a single vehicle taken from the front, rear, left and right, and extract:
1. Vehicle Make
2. Vehicle Model
3. Manufacturing year range (e.g. "2015-2020")
4. Vehicle Type (twowheeler, threewheeler, fourwheeler or other)
5. A short report of damages visible in the images

Respond only with a JSON object in the following format:
` + "```json" + `
{
  "make": "Vehicle Make",
  "model": "Vehicle Model",
  "Manufacturing_year_range": "YYYY-YYYY",
  "vehicle_type": "twowheeler|threewheeler|fourwheeler|other",
  "damages": "Description of visible damages"
}
` + "```"
